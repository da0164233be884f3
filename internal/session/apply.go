package session

import (
	"strings"

	"codecollab/internal/models"
)

// ApplyChange returns doc with change applied and whether anything was
// applied. Lines are 1-based; a change addressing a line that does not exist
// leaves the document untouched. Replace always rewrites the whole target
// line, whatever the length of the new content.
func ApplyChange(doc string, change models.CodeChange) (string, bool) {
	lines := strings.Split(doc, "\n")
	idx := change.Position.Line - 1
	if idx < 0 || idx >= len(lines) {
		return doc, false
	}

	line := []rune(lines[idx])
	col := clamp(change.Position.Column, 0, len(line))

	switch change.Type {
	case models.ChangeInsert:
		out := make([]rune, 0, len(line)+len(change.Content))
		out = append(out, line[:col]...)
		out = append(out, []rune(change.Content)...)
		out = append(out, line[col:]...)
		lines[idx] = string(out)
	case models.ChangeDelete:
		end := clamp(col+len([]rune(change.Content)), col, len(line))
		lines[idx] = string(line[:col]) + string(line[end:])
	case models.ChangeReplace:
		lines[idx] = change.Content
	default:
		return doc, false
	}

	return strings.Join(lines, "\n"), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
