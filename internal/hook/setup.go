package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sessionlens/sessionlens/internal/config"
)

const (
	hookCommand  = "slens hook"
	hookEvent    = "SessionEnd"
	backupSuffix = ".slens.bak"
)

// SettingsPath returns the path to ~/.claude/settings.json.
func SettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "settings.json"), nil
}

// Install registers the SessionEnd hook in settings.json. Idempotent.
func Install() error {
	path, err := SettingsPath()
	if err != nil {
		return err
	}
	return installAt(path)
}

func installAt(path string) error {
	settings, err := readSettings(path)
	if err != nil {
		return err
	}

	if hasHookEntry(settings) {
		fmt.Fprintf(os.Stderr, "slens hook already configured in %s\n", config.CompressHome(path))
		return nil
	}

	if err := backup(path); err != nil {
		return err
	}
	addHookEntry(settings)
	if err := writeSettings(path, settings); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "slens hook installed in %s\n", config.CompressHome(path))
	return nil
}

// Uninstall removes the SessionEnd hook from settings.json. Idempotent.
func Uninstall() error {
	path, err := SettingsPath()
	if err != nil {
		return err
	}
	return uninstallAt(path)
}

func uninstallAt(path string) error {
	settings, err := readSettings(path)
	if err != nil {
		return err
	}

	if !hasHookEntry(settings) {
		fmt.Fprintf(os.Stderr, "slens hook not found in %s\n", config.CompressHome(path))
		return nil
	}

	if err := backup(path); err != nil {
		return err
	}
	removeHookEntry(settings)
	if err := writeSettings(path, settings); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "slens hook removed from %s\n", config.CompressHome(path))
	return nil
}

// readSettings parses the settings file. A missing or empty file yields
// an empty map.
func readSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", config.CompressHome(path), err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return make(map[string]any), nil
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", config.CompressHome(path), err)
	}
	return settings, nil
}

func writeSettings(path string, settings map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", config.CompressHome(path), err)
	}
	return nil
}

// backup copies the settings file aside before rewriting it. No-op when
// the source does not exist.
func backup(path string) error {
	src, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("backup: open %s: %w", config.CompressHome(path), err)
	}
	defer src.Close()

	dst, err := os.Create(path + backupSuffix)
	if err != nil {
		return fmt.Errorf("backup: create %s%s: %w", config.CompressHome(path), backupSuffix, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("backup: copy: %w", err)
	}
	return nil
}

func hasHookEntry(settings map[string]any) bool {
	hooksMap, ok := settings["hooks"].(map[string]any)
	if !ok {
		return false
	}
	eventArray, ok := hooksMap[hookEvent].([]any)
	if !ok {
		return false
	}
	for _, entry := range eventArray {
		if entryRunsHookCommand(entry) {
			return true
		}
	}
	return false
}

func entryRunsHookCommand(entry any) bool {
	entryMap, ok := entry.(map[string]any)
	if !ok {
		return false
	}
	inner, ok := entryMap["hooks"].([]any)
	if !ok {
		return false
	}
	for _, h := range inner {
		hm, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if cmd, ok := hm["command"].(string); ok && strings.Contains(cmd, hookCommand) {
			return true
		}
	}
	return false
}

func addHookEntry(settings map[string]any) {
	hooksMap, ok := settings["hooks"].(map[string]any)
	if !ok {
		hooksMap = make(map[string]any)
		settings["hooks"] = hooksMap
	}

	entry := map[string]any{
		"matcher": "",
		"hooks": []any{
			map[string]any{
				"type":    "command",
				"command": hookCommand,
			},
		},
	}

	eventArray, ok := hooksMap[hookEvent].([]any)
	if !ok {
		eventArray = []any{}
	}
	hooksMap[hookEvent] = append(eventArray, entry)
}

// removeHookEntry drops slens entries and cleans up emptied containers.
func removeHookEntry(settings map[string]any) {
	hooksMap, ok := settings["hooks"].(map[string]any)
	if !ok {
		return
	}
	eventArray, ok := hooksMap[hookEvent].([]any)
	if !ok {
		return
	}

	var kept []any
	for _, entry := range eventArray {
		if !entryRunsHookCommand(entry) {
			kept = append(kept, entry)
		}
	}

	if len(kept) == 0 {
		delete(hooksMap, hookEvent)
	} else {
		hooksMap[hookEvent] = kept
	}
	if len(hooksMap) == 0 {
		delete(settings, "hooks")
	}
}
