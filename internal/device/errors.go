// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"github.com/PhoshMobi/feedbackd/internal/ferrors"
)

var errNoLEDForColor = ferrors.Wrap(ferrors.ErrNoDeviceForFeedback, "no led supports the requested color", nil)
