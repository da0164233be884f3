package prompts

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptManagerBuildPrompt(t *testing.T) {
	pm, err := NewPromptManager()
	require.NoError(t, err)

	prompt, err := pm.BuildPrompt("explain", "print('hello')", "python", "beginner")
	require.NoError(t, err)
	assert.Contains(t, prompt, "python")
	assert.Contains(t, prompt, "print('hello')")
	assert.NotContains(t, prompt, "{{.Code}}")

	_, err = pm.BuildPrompt("unknown", "x", "python", "beginner")
	assert.Error(t, err)

	_, err = pm.BuildPrompt("explain", "x", "python", "missing")
	assert.Error(t, err)
}

func TestPromptManagerLoadsEveryMode(t *testing.T) {
	pm, err := NewPromptManager()
	require.NoError(t, err)
	assert.Equal(t, []string{"audit", "explain", "optimize"}, pm.Modes())

	for _, mode := range pm.Modes() {
		for _, level := range []string{"beginner", "intermediate", "advanced"} {
			_, err := pm.BuildPrompt(mode, "code", "go", level)
			assert.NoError(t, err, "%s/%s", mode, level)
		}
	}
}

func TestBuildPromptKeepsTemplateSyntaxInCode(t *testing.T) {
	pm, err := NewPromptManager()
	require.NoError(t, err)

	code := "const tpl = `{{.Secret}}`"
	prompt, err := pm.BuildPrompt("explain", code, "javascript", "advanced")
	require.NoError(t, err)
	assert.Contains(t, prompt, code)
}

func TestLoadFrom_Errors(t *testing.T) {
	tests := map[string]fstest.MapFS{
		"empty dir": {},
		"bad yaml":  {"t/explain.yaml": {Data: []byte("base_prompt: [")}},
		"missing level": {"t/explain.yaml": {Data: []byte(
			"base_prompt: hi\ndetail_levels:\n  beginner: a\n  intermediate: b\n")}},
		"bad template": {"t/explain.yaml": {Data: []byte(
			"base_prompt: \"{{.Code\"\ndetail_levels:\n  beginner: a\n  intermediate: b\n  advanced: c\n")}},
	}
	for name, fsys := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(fsys, "t")
			assert.Error(t, err)
		})
	}
}

func TestLoadFrom_CustomTemplates(t *testing.T) {
	fsys := fstest.MapFS{"t/review.yaml": {Data: []byte(
		"base_prompt: \"Review {{.Language}}:\"\ndetail_levels:\n  beginner: \"{{.Code}} (slowly)\"\n  intermediate: \"{{.Code}}\"\n  advanced: \"{{.Code}} (briefly)\"\n")}}

	pm, err := LoadFrom(fsys, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"review"}, pm.Modes())

	prompt, err := pm.BuildPrompt("review", "x := 1", "go", "advanced")
	require.NoError(t, err)
	assert.Equal(t, "Review go:\n\nx := 1 (briefly)", prompt)
}
