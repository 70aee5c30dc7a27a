package storage

import "strings"

// Characters not allowed in file or directory names on common filesystems
var nameReplacer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", "\"", "_",
	"/", "_", "\\", "_", "|", "_", "?", "_", "*", "_",
)

// SanitizeName makes a single path component safe for the local
// filesystem. Empty or dot-only names become "unnamed".
func SanitizeName(name string) string {
	name = nameReplacer.Replace(strings.TrimSpace(name))
	name = strings.Trim(name, ". ")
	if name == "" {
		return "unnamed"
	}
	return name
}

// sanitizePath sanitizes every component of a slash-separated relative path
func sanitizePath(p string) []string {
	var parts []string
	for _, part := range strings.Split(p, "/") {
		if part == "" {
			continue
		}
		parts = append(parts, SanitizeName(part))
	}
	if len(parts) == 0 {
		parts = []string{"unnamed"}
	}
	return parts
}
