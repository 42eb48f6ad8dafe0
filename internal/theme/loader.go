// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package theme

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/PhoshMobi/feedbackd/internal/ferrors"
	"github.com/PhoshMobi/feedbackd/internal/log"
	"github.com/PhoshMobi/feedbackd/internal/model"
)

const maxParentDepth = 8

// deviceThemeName is the reserved parent-name sentinel meaning "the
// device-specific compatible-driven theme" (§4.2 "Parent chain").
const deviceThemeName = "$device"

// Loader resolves theme candidate names, searches the configured paths, and
// merges parent chains into a single Theme.
type Loader struct {
	// SearchPaths are scanned in order for "<name>.json" under a
	// "feedbackd/themes/" subdirectory (§4.2 step 3).
	SearchPaths []string
	// CompatibleLines are the device-tree compatible identifiers, most
	// specific first, used to compute the device theme's candidate name.
	CompatibleLines []string
	// EnvThemePath, if set, is an absolute path loaded unconditionally as
	// the chosen theme (FEEDBACK_THEME testing override, §4.2 step 1).
	EnvThemePath string
}

// NewLoaderFromEnv builds a Loader using FEEDBACK_THEME and XDG search
// paths, mirroring the teacher's habit of resolving roots from the
// environment rather than hardcoding them.
func NewLoaderFromEnv(compatibleLines []string) *Loader {
	return &Loader{
		SearchPaths:     XDGSearchPaths(),
		CompatibleLines: compatibleLines,
		EnvThemePath:    os.Getenv("FEEDBACK_THEME"),
	}
}

// XDGSearchPaths returns the user-config dir followed by each system data
// dir, in declared order, per §4.2 step 3.
func XDGSearchPaths() []string {
	var paths []string

	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		paths = append(paths, configHome)
	}

	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	for _, d := range strings.Split(dataDirs, ":") {
		if d != "" {
			paths = append(paths, d)
		}
	}

	return paths
}

// ThemeDirs returns every directory Load searches for theme files: each
// SearchPaths root's "feedbackd/themes" subdirectory, plus the directory
// containing EnvThemePath when the testing override is set. Used to point
// a fsnotify watcher at exactly the inputs that can change the active
// theme (§4.2 "SIGHUP path", hot-reload).
func (l *Loader) ThemeDirs() []string {
	var dirs []string
	if l.EnvThemePath != "" {
		dirs = append(dirs, filepath.Dir(l.EnvThemePath))
	}
	for _, root := range l.SearchPaths {
		dirs = append(dirs, filepath.Join(root, "feedbackd", "themes"))
	}
	return dirs
}

// CandidateNames computes the ordered theme names to try (§4.2 step 2):
// each device compatible line, then "default".
func (l *Loader) CandidateNames() []string {
	names := append([]string{}, l.CompatibleLines...)
	return append(names, "default")
}

// Load resolves and returns the active theme: the env override if set,
// otherwise the first candidate name that is found on the search path, with
// its parent chain merged in.
func (l *Loader) Load() (*model.Theme, error) {
	if l.EnvThemePath != "" {
		data, err := os.ReadFile(l.EnvThemePath)
		if err != nil {
			return nil, ferrors.Wrap(ferrors.ErrThemeMissing, l.EnvThemePath, err)
		}
		t, err := parseDoc(data)
		if err != nil {
			return nil, err
		}
		return l.mergeParents(t, map[string]bool{t.Name: true}, 0)
	}

	for _, name := range l.CandidateNames() {
		t, err := l.loadByName(name)
		if err != nil {
			if ferrors.Is(err, ferrors.ErrThemeParse) {
				log.L().Warn().Err(err).Str("theme", name).Msg("skipping malformed theme candidate")
				continue
			}
			continue // not found under this candidate, try the next
		}
		return l.mergeParents(t, map[string]bool{name: true}, 0)
	}

	return nil, ferrors.Wrap(ferrors.ErrThemeMissing, "no theme found including default", nil)
}

// loadByName searches SearchPaths for "<name>.json" under feedbackd/themes/
// and parses the first hit.
func (l *Loader) loadByName(name string) (*model.Theme, error) {
	for _, root := range l.SearchPaths {
		path := filepath.Join(root, "feedbackd", "themes", name+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return parseDoc(data)
	}
	return nil, ferrors.Wrap(ferrors.ErrThemeMissing, name, nil)
}

// mergeParents walks the parent chain, merging each ancestor under the
// child so a child's (profile, event) entries shadow the parent's, with
// cycle rejection and an 8-deep cap (§3 "Theme" invariant, §4.2).
func (l *Loader) mergeParents(child *model.Theme, seen map[string]bool, depth int) (*model.Theme, error) {
	if child.ParentName == "" {
		return child, nil
	}
	if depth >= maxParentDepth {
		return nil, ferrors.Wrap(ferrors.ErrThemeCycle, "parent chain exceeds max depth", nil)
	}

	parentName := child.ParentName
	if parentName == deviceThemeName {
		names := l.CandidateNames()
		if len(names) == 0 {
			return child, nil
		}
		parentName = names[0]
	}

	if seen[parentName] {
		return nil, ferrors.Wrap(ferrors.ErrThemeCycle, parentName, nil)
	}
	seen[parentName] = true

	parent, err := l.loadByName(parentName)
	if err != nil {
		// A missing parent is not fatal to the child: use the child alone.
		return child, nil
	}

	merged, err := l.mergeParents(parent, seen, depth+1)
	if err != nil {
		return nil, err
	}

	return overlay(merged, child), nil
}

// overlay returns a theme where every (profile, event) entry from base is
// present unless child overrides that key, matching the "child overriding
// parent" invariant.
func overlay(base, child *model.Theme) *model.Theme {
	out := model.NewTheme(child.Name)
	out.ParentName = child.ParentName

	for profile, byEvent := range base.Profiles {
		for evName, fbs := range byEvent {
			out.Set(profile, evName, fbs)
		}
	}
	for profile, byEvent := range child.Profiles {
		for evName, fbs := range byEvent {
			out.Set(profile, evName, fbs)
		}
	}

	return out
}

// CompatibleLinesFromDeviceTree reads the device-tree "compatible" file and
// returns its NUL-separated entries as an ordered slice (most specific
// first). A missing file (non-device-tree hardware) yields an empty slice,
// not an error.
func CompatibleLinesFromDeviceTree(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	data, err := readAll(f)
	if err != nil {
		return nil
	}
	var lines []string
	for _, tok := range strings.Split(string(data), "\x00") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			lines = append(lines, tok)
		}
	}
	return lines
}

func readAll(f *os.File) ([]byte, error) {
	r := bufio.NewReader(f)
	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err != nil {
			break
		}
	}
	return out, nil
}
