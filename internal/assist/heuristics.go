package assist

import (
	"fmt"
	"regexp"
	"strings"

	"codecollab/internal/models"
)

var (
	functionPattern    = regexp.MustCompile(`\b(func|function|def|fn)\b|=>|^\s*(public|private|protected|static)\s[^=;]*\(`)
	loopPattern        = regexp.MustCompile(`^\s*(for|while|do)\b|\.forEach\(`)
	conditionalPattern = regexp.MustCompile(`\b(if|switch|elif|case)\b`)
	concatPattern      = regexp.MustCompile(`\+=\s*["'` + "`" + `]|["'` + "`" + `]\s*\+\s*\w|\w\s*\+\s*["'` + "`" + `]`)
)

type codeStats struct {
	lines        int
	blank        int
	functions    int
	loops        int
	conditionals int
}

func measure(code string) codeStats {
	var st codeStats
	for _, line := range strings.Split(code, "\n") {
		st.lines++
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			st.blank++
			continue
		}
		if functionPattern.MatchString(line) {
			st.functions++
		}
		if loopPattern.MatchString(line) {
			st.loops++
		}
		if conditionalPattern.MatchString(line) {
			st.conditionals++
		}
	}
	return st
}

func heuristic(mode models.AnalysisMode, code, language, detailLevel string, findings []models.Finding) string {
	switch mode {
	case models.ModeOptimize:
		return heuristicOptimize(code, detailLevel)
	case models.ModeAudit:
		return heuristicAudit(findings, detailLevel)
	default:
		return heuristicExplain(code, language, detailLevel)
	}
}

func heuristicExplain(code, language, detailLevel string) string {
	st := measure(code)
	var sb strings.Builder
	fmt.Fprintf(&sb, "This %s snippet has %d lines (%d blank), %d function definition(s), %d loop(s) and %d conditional branch(es).",
		language, st.lines, st.blank, st.functions, st.loops, st.conditionals)

	switch detailLevel {
	case "beginner":
		sb.WriteString("\n\nFunctions group steps you can reuse. Loops repeat a block of code while a condition holds. Conditionals pick which block runs.")
		if st.loops == 0 && st.conditionals == 0 {
			sb.WriteString(" This code runs straight through from top to bottom.")
		}
	case "advanced":
		if st.loops > 1 {
			sb.WriteString("\n\nMultiple loops are present; check whether any are nested before reasoning about complexity.")
		}
	default:
		if st.functions > 0 {
			sb.WriteString("\n\nStart with the function definitions to see the entry points, then follow the control flow inside each.")
		}
	}
	return sb.String()
}

type loopFrame struct {
	indent int
	line   int
}

func indentOf(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

func heuristicOptimize(code, detailLevel string) string {
	var notes []string
	var stack []loopFrame

	for i, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := indentOf(line)
		for len(stack) > 0 && indent <= stack[len(stack)-1].indent {
			stack = stack[:len(stack)-1]
		}

		lineNo := i + 1
		if loopPattern.MatchString(line) {
			if len(stack) > 0 {
				notes = append(notes, fmt.Sprintf("Line %d: loop nested inside the loop on line %d; consider a map or set lookup to avoid quadratic work.", lineNo, stack[len(stack)-1].line))
			}
			stack = append(stack, loopFrame{indent: indent, line: lineNo})
			continue
		}
		if len(stack) > 0 && concatPattern.MatchString(line) {
			notes = append(notes, fmt.Sprintf("Line %d: string concatenation inside a loop; collect parts and join once.", lineNo))
		}
	}

	if len(notes) == 0 {
		return "No obvious performance issues were found by the static checks."
	}

	var sb strings.Builder
	sb.WriteString("Possible optimizations:\n")
	for _, n := range notes {
		sb.WriteString("- ")
		sb.WriteString(n)
		sb.WriteByte('\n')
	}
	if detailLevel == "beginner" {
		sb.WriteString("\nA loop inside a loop repeats the inner work for every outer step, so the cost grows quickly with input size.")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func heuristicAudit(findings []models.Finding, detailLevel string) string {
	if len(findings) == 0 {
		return "No issues were found by the pattern scanner."
	}

	counts := map[models.Severity]int{}
	for _, f := range findings {
		counts[f.Severity]++
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d issue(s): %d error(s), %d warning(s), %d info.\n",
		len(findings), counts[models.SeverityError], counts[models.SeverityWarning], counts[models.SeverityInfo])
	for _, f := range findings {
		if detailLevel == "advanced" && f.Severity == models.SeverityInfo {
			continue
		}
		fmt.Fprintf(&sb, "- Line %d [%s] %s: %s\n", f.Line, f.Severity, f.Rule, f.Message)
	}
	return strings.TrimRight(sb.String(), "\n")
}
