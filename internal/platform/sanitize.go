package platform

import "strings"

// DefaultFilename is used when a title sanitizes to nothing
const DefaultFilename = "download"

// MaxFilenameLength bounds sanitized names, marker included
const MaxFilenameLength = 100

// TruncationMarker ends names that were cut to MaxFilenameLength
const TruncationMarker = "..."

var filenameReplacer = strings.NewReplacer(
	// illegal in paths on at least one OS
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
	// troublesome in shells and URLs
	"&", "and",
	"#", "",
	"%", "",
	"$", "",
	"@", "",
	"!", "",
	"+", "_plus_",
)

// SanitizeFilename turns an untrusted title into a bounded, path-safe name.
// Whitespace is collapsed after symbol removal so that SanitizeFilename is
// idempotent.
func SanitizeFilename(name string) string {
	name = filenameReplacer.Replace(name)
	name = strings.Join(strings.Fields(name), " ")

	if runes := []rune(name); len(runes) > MaxFilenameLength {
		name = string(runes[:MaxFilenameLength-len(TruncationMarker)]) + TruncationMarker
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultFilename
	}
	return name
}
