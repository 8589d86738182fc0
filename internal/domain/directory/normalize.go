package directory

import "strings"

// NormalizeKey returns the comparison form used for duplicate matching
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func maxLen(field, value string, limit int) error {
	if len([]rune(value)) > limit {
		return invalidField(field, "cannot exceed %d characters", limit)
	}
	return nil
}
