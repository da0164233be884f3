package scanner

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"codecollab/internal/models"
)

const maxLineLength = 120

// rule is a single-line pattern check. An empty languages list applies the
// rule to every language.
type rule struct {
	id        string
	severity  models.Severity
	message   string
	pattern   *regexp.Regexp
	languages []string
}

func (r rule) appliesTo(language string) bool {
	if len(r.languages) == 0 {
		return true
	}
	for _, l := range r.languages {
		if l == language {
			return true
		}
	}
	return false
}

var rules = []rule{
	{
		id: "todo-comment", severity: models.SeverityInfo,
		message: "Unresolved TODO/FIXME marker",
		pattern: regexp.MustCompile(`\b(TODO|FIXME|XXX)\b`),
	},
	{
		id: "hardcoded-secret", severity: models.SeverityError,
		message: "Possible hard-coded credential",
		pattern: regexp.MustCompile(`(?i)\b(password|passwd|secret|api_?key|access_?token)\b\s*[:=]\s*["'][^"']{4,}["']`),
	},
	{
		id: "no-eval", severity: models.SeverityError,
		message:   "eval executes arbitrary code",
		pattern:   regexp.MustCompile(`\beval\s*\(`),
		languages: []string{"javascript", "typescript", "python"},
	},
	{
		id: "loose-equality", severity: models.SeverityWarning,
		message:   "Use === or !== to avoid type coercion",
		pattern:   regexp.MustCompile(`[^=!<>]==[^=]|!=[^=]`),
		languages: []string{"javascript", "typescript"},
	},
	{
		id: "no-var", severity: models.SeverityWarning,
		message:   "Prefer let or const over var",
		pattern:   regexp.MustCompile(`^\s*var\s`),
		languages: []string{"javascript", "typescript"},
	},
	{
		id: "console-log", severity: models.SeverityInfo,
		message:   "Leftover console.log",
		pattern:   regexp.MustCompile(`\bconsole\.log\s*\(`),
		languages: []string{"javascript", "typescript"},
	},
	{
		id: "no-exec", severity: models.SeverityError,
		message:   "exec executes arbitrary code",
		pattern:   regexp.MustCompile(`\bexec\s*\(`),
		languages: []string{"python"},
	},
	{
		id: "bare-except", severity: models.SeverityWarning,
		message:   "Bare except swallows every exception",
		pattern:   regexp.MustCompile(`^\s*except\s*:`),
		languages: []string{"python"},
	},
	{
		id: "empty-catch", severity: models.SeverityWarning,
		message:   "Empty catch block hides failures",
		pattern:   regexp.MustCompile(`catch\s*\([^)]*\)\s*\{\s*\}`),
		languages: []string{"java", "javascript", "typescript", "cpp"},
	},
	{
		id: "system-out", severity: models.SeverityInfo,
		message:   "Leftover System.out debugging output",
		pattern:   regexp.MustCompile(`System\.(out|err)\.print`),
		languages: []string{"java"},
	},
	{
		id: "unsafe-gets", severity: models.SeverityError,
		message:   "gets has no bounds check; use fgets",
		pattern:   regexp.MustCompile(`\bgets\s*\(`),
		languages: []string{"cpp"},
	},
	{
		id: "unsafe-strcpy", severity: models.SeverityWarning,
		message:   "strcpy can overflow; use strncpy or std::string",
		pattern:   regexp.MustCompile(`\bstrcpy\s*\(`),
		languages: []string{"cpp"},
	},
	{
		id: "empty-error-check", severity: models.SeverityWarning,
		message:   "Error checked but not handled",
		pattern:   regexp.MustCompile(`if\s+err\s*!=\s*nil\s*\{\s*\}`),
		languages: []string{"go"},
	},
	{
		id: "panic-call", severity: models.SeverityInfo,
		message:   "panic aborts the program; prefer returning an error",
		pattern:   regexp.MustCompile(`\bpanic\s*\(`),
		languages: []string{"go"},
	},
}

// Scan runs every pattern rule for language over code plus a bracket balance
// check. Lines are 1-based, columns are 0-based character offsets. Findings
// are ordered by position.
func Scan(code, language string) []models.Finding {
	language = strings.ToLower(strings.TrimSpace(language))
	findings := []models.Finding{}

	for i, line := range strings.Split(code, "\n") {
		lineNo := i + 1
		for _, r := range rules {
			if !r.appliesTo(language) {
				continue
			}
			if loc := r.pattern.FindStringIndex(line); loc != nil {
				findings = append(findings, models.Finding{
					Line:     lineNo,
					Column:   utf8.RuneCountInString(line[:loc[0]]),
					Severity: r.severity,
					Rule:     r.id,
					Message:  r.message,
				})
			}
		}
		if n := utf8.RuneCountInString(line); n > maxLineLength {
			findings = append(findings, models.Finding{
				Line:     lineNo,
				Column:   maxLineLength,
				Severity: models.SeverityInfo,
				Rule:     "long-line",
				Message:  "Line is longer than 120 characters",
			})
		}
	}

	findings = append(findings, checkBrackets(code)...)
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].Column < findings[j].Column
	})
	return findings
}

type opener struct {
	r         rune
	line, col int
}

var closers = map[rune]rune{')': '(', ']': '[', '}': '{'}

// checkBrackets reports the first unmatched closing bracket and every
// bracket left open. Quoted strings are skipped; escapes inside them are
// honoured.
func checkBrackets(code string) []models.Finding {
	var (
		stack    []opener
		findings []models.Finding
		quote    rune
		escaped  bool
		line     = 1
		col      = 0
	)
	for _, r := range code {
		switch {
		case quote != 0:
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
			case r == '\n' && quote != '`':
				quote = 0
			}
		case r == '"' || r == '\'' || r == '`':
			quote = r
		case r == '(' || r == '[' || r == '{':
			stack = append(stack, opener{r: r, line: line, col: col})
		case closers[r] != 0:
			if len(stack) == 0 || stack[len(stack)-1].r != closers[r] {
				return append(findings, models.Finding{
					Line: line, Column: col, Severity: models.SeverityError,
					Rule: "unbalanced-brackets", Message: "Unexpected '" + string(r) + "'",
				})
			}
			stack = stack[:len(stack)-1]
		}
		if r == '\n' {
			line++
			col = 0
			continue
		}
		col++
	}
	for _, o := range stack {
		findings = append(findings, models.Finding{
			Line: o.line, Column: o.col, Severity: models.SeverityError,
			Rule: "unbalanced-brackets", Message: "Unclosed '" + string(o.r) + "'",
		})
	}
	return findings
}
