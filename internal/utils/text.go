package utils

import (
	"strconv"
	"strings"
)

func NormalizeLanguage(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}

// AddLineNumbers prefixes each line with its 1-based number so generated
// explanations can cite lines that match the shared editor.
func AddLineNumbers(code string) string {
	if code == "" {
		return ""
	}
	lines := strings.Split(code, "\n")
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(": ")
		sb.WriteString(line)
	}
	return sb.String()
}

// StripFences removes a surrounding markdown code fence and trims whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
