package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecollab/internal/models"
)

func rulesOf(findings []models.Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Rule)
	}
	return out
}

func TestScan_CleanCode(t *testing.T) {
	code := "const add = (a, b) => a + b;\nlet total = add(1, 2);"
	assert.Empty(t, Scan(code, "javascript"))
}

func TestScan_JavaScriptRules(t *testing.T) {
	code := "var x = 1;\nif (x == '1') { eval(input); }\nconsole.log(x);"

	findings := Scan(code, "JavaScript")
	assert.Equal(t, []string{"no-var", "loose-equality", "no-eval", "console-log"}, rulesOf(findings))

	eval := findings[2]
	assert.Equal(t, 2, eval.Line)
	assert.Equal(t, 16, eval.Column)
	assert.Equal(t, models.SeverityError, eval.Severity)
}

func TestScan_StrictEqualityIsClean(t *testing.T) {
	assert.Empty(t, Scan("if (a === b && c !== d) {}", "typescript"))
}

func TestScan_LanguageScopedRules(t *testing.T) {
	code := "try:\n    exec(cmd)\nexcept:\n    pass"
	assert.Equal(t, []string{"no-exec", "bare-except"}, rulesOf(Scan(code, "python")))
	assert.Empty(t, Scan(code, "go"), "python rules do not fire for go")
}

func TestScan_GenericRules(t *testing.T) {
	long := make([]byte, 130)
	for i := range long {
		long[i] = 'a'
	}
	code := "// TODO: remove\napi_key = \"abcd1234\"\n" + string(long)

	findings := Scan(code, "go")
	assert.Equal(t, []string{"todo-comment", "hardcoded-secret", "long-line"}, rulesOf(findings))
	assert.Equal(t, 3, findings[2].Line)
	assert.Equal(t, 120, findings[2].Column)
}

func TestScan_Brackets(t *testing.T) {
	tests := []struct {
		name string
		code string
		want []models.Finding
	}{
		{"balanced", "func f() { return []int{1} }", nil},
		{"brackets in strings ignored", `s := "(((" + ')'`, nil},
		{
			"unexpected closer", "a)\nb",
			[]models.Finding{{Line: 1, Column: 1, Severity: models.SeverityError, Rule: "unbalanced-brackets", Message: "Unexpected ')'"}},
		},
		{
			"unclosed opener", "x\n  if (a {",
			[]models.Finding{
				{Line: 2, Column: 5, Severity: models.SeverityError, Rule: "unbalanced-brackets", Message: "Unclosed '('"},
				{Line: 2, Column: 8, Severity: models.SeverityError, Rule: "unbalanced-brackets", Message: "Unclosed '{'"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkBrackets(tt.code)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestScan_CppAndJava(t *testing.T) {
	assert.Equal(t, []string{"unsafe-gets", "unsafe-strcpy"}, rulesOf(Scan("gets(buf); strcpy(a, b);", "cpp")))
	assert.Equal(t, []string{"empty-catch", "system-out"}, rulesOf(Scan("try { f(); } catch (Exception e) {} System.out.println(1);", "java")))
}
