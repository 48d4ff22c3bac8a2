// Package locate resolves session directories by id.
//
// The directory conventions are owned by the host; the rest of the
// pipeline depends only on the Locator capability so tests can substitute
// an in-memory implementation.
package locate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Locator resolves a session id to its on-disk directory.
type Locator interface {
	// Resolve returns the session directory and true, or "" and false
	// when no artifacts exist for the id.
	Resolve(sessionID string) (string, bool)
}

// Static resolves every id to one fixed directory. Used when the trigger
// already carries a coordinator-provided path, and in tests.
type Static string

// Resolve implements Locator.
func (s Static) Resolve(string) (string, bool) {
	if s == "" {
		return "", false
	}
	if _, err := os.Stat(string(s)); err != nil {
		return "", false
	}
	return string(s), true
}

// DirLocator scans the known session layouts under a data root:
// <root>/projects/*/sessions/<id> and the legacy <root>/sessions/<id>.
type DirLocator struct {
	Root string
}

// Resolve implements Locator. An exact directory match wins; a unique-enough
// prefix match under any project is accepted so truncated ids still resolve.
func (l DirLocator) Resolve(sessionID string) (string, bool) {
	if sessionID == "" {
		return "", false
	}

	// Legacy flat layout first: it is a direct stat, no scan.
	legacy := filepath.Join(l.Root, "sessions", sessionID)
	if isDir(legacy) {
		return legacy, true
	}

	projects, err := os.ReadDir(filepath.Join(l.Root, "projects"))
	if err != nil {
		return "", false
	}

	for _, p := range projects {
		if !p.IsDir() {
			continue
		}
		sessionsDir := filepath.Join(l.Root, "projects", p.Name(), "sessions")

		exact := filepath.Join(sessionsDir, sessionID)
		if isDir(exact) {
			return exact, true
		}

		entries, err := os.ReadDir(sessionsDir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() && strings.HasPrefix(e.Name(), sessionID) {
				return filepath.Join(sessionsDir, e.Name()), true
			}
		}
	}

	return "", false
}

// SessionInfo describes a discovered session for listings.
type SessionInfo struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Created   string `json:"created"`
	TurnCount int    `json:"turn_count"`
	Path      string `json:"path"`
}

// Recent lists sessions across all projects, newest first, up to limit.
// Child sessions (names containing an underscore) are skipped, and a
// session without readable metadata is skipped rather than failing the scan.
func (l DirLocator) Recent(limit int) []SessionInfo {
	var sessions []SessionInfo

	sessions = appendSessions(sessions, filepath.Join(l.Root, "sessions"))

	if projects, err := os.ReadDir(filepath.Join(l.Root, "projects")); err == nil {
		for _, p := range projects {
			if !p.IsDir() {
				continue
			}
			sessions = appendSessions(sessions, filepath.Join(l.Root, "projects", p.Name(), "sessions"))
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Created > sessions[j].Created
	})
	if limit > 0 && limit < len(sessions) {
		sessions = sessions[:limit]
	}
	return sessions
}

// appendSessions collects session listings from one directory of session
// subdirectories.
func appendSessions(sessions []SessionInfo, sessionsDir string) []SessionInfo {
	entries, err := os.ReadDir(sessionsDir)
	if err != nil {
		return sessions
	}

	for _, e := range entries {
		if !e.IsDir() || strings.Contains(e.Name(), "_") {
			continue
		}
		dir := filepath.Join(sessionsDir, e.Name())

		data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
		if err != nil {
			continue
		}
		var meta struct {
			Name      string `json:"name"`
			Created   string `json:"created"`
			TurnCount int    `json:"turn_count"`
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		if meta.Name == "" {
			meta.Name = "unnamed"
		}

		sessions = append(sessions, SessionInfo{
			SessionID: e.Name(),
			Name:      meta.Name,
			Created:   meta.Created,
			TurnCount: meta.TurnCount,
			Path:      dir,
		})
	}
	return sessions
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
