// Package sanitize filters session content before it is stored or sent
// to a provider.
package sanitize

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var xmlTagPattern = regexp.MustCompile(
	`</?(?:local-command-(?:stdout|stderr|caveat)|command-(?:output|name|args|message)|` +
		`system-reminder|task-(?:id|notification)|persisted-output|thinking|tool-use-id|` +
		`tool|skill-name|plugin-id)[^>]*>`,
)

// StripTags removes assistant XML wrapper tags from message text.
func StripTags(text string) string {
	return strings.TrimSpace(xmlTagPattern.ReplaceAllString(text, ""))
}

// Path sanitizes a file path per the privacy policy. When includePaths is
// false only the final component survives; otherwise paths under the home
// directory are collapsed to a ~-relative form and other paths pass through.
// Applied at collection time, never retroactively.
func Path(path string, includePaths bool) string {
	if !includePaths {
		return filepath.Base(path)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
