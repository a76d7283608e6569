package util

import "strings"

// SanitizeASCII strips non-printable and non-ASCII characters from a string
// so downstream error payloads cannot smuggle control sequences or broken
// encodings into responses and logs.
func SanitizeASCII(s string) string {
	builder := strings.Builder{}
	builder.Grow(len(s))

	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			continue
		}
		builder.WriteRune(r)
	}

	return strings.TrimSpace(builder.String())
}
