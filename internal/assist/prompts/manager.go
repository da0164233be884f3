package prompts

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templateFS embed.FS

// DetailLevels every mode file must define.
var DetailLevels = []string{"beginner", "intermediate", "advanced"}

// templateFile is the on-disk shape of one mode.
type templateFile struct {
	BasePrompt   string            `yaml:"base_prompt"`
	DetailLevels map[string]string `yaml:"detail_levels"`
}

// promptData is what templates may reference.
type promptData struct {
	Language string
	Code     string
}

type PromptManager struct {
	templates map[string]map[string]*template.Template // mode -> detail level
}

// NewPromptManager loads the embedded mode templates.
func NewPromptManager() (*PromptManager, error) {
	return LoadFrom(templateFS, "templates")
}

// LoadFrom parses every *.yaml file in dir. The file name is the mode.
func LoadFrom(fsys fs.FS, dir string) (*PromptManager, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt templates: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no prompt templates in %s", dir)
	}

	pm := &PromptManager{templates: make(map[string]map[string]*template.Template, len(names))}
	for _, name := range names {
		mode := strings.TrimSuffix(path.Base(name), ".yaml")
		levels, err := parseMode(fsys, name, mode)
		if err != nil {
			return nil, err
		}
		pm.templates[mode] = levels
	}
	return pm, nil
}

func parseMode(fsys fs.FS, name, mode string) (map[string]*template.Template, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", name, err)
	}
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse template file %s: %w", name, err)
	}

	levels := make(map[string]*template.Template, len(DetailLevels))
	for _, level := range DetailLevels {
		body, ok := file.DetailLevels[level]
		if !ok {
			return nil, fmt.Errorf("mode %q is missing detail level %q", mode, level)
		}
		text := strings.TrimSpace(file.BasePrompt + "\n\n" + body)
		tmpl, err := template.New(mode + "/" + level).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("invalid template %s/%s: %w", mode, level, err)
		}
		levels[level] = tmpl
	}
	return levels, nil
}

// BuildPrompt renders the template for mode and detail level. Code is
// inserted as data, so template syntax inside it is not interpreted.
func (pm *PromptManager) BuildPrompt(mode, code, language, detailLevel string) (string, error) {
	levels, ok := pm.templates[mode]
	if !ok {
		return "", fmt.Errorf("template not found for mode: %s", mode)
	}
	tmpl, ok := levels[detailLevel]
	if !ok {
		return "", fmt.Errorf("detail level '%s' not found for mode '%s'", detailLevel, mode)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, promptData{Language: language, Code: code}); err != nil {
		return "", fmt.Errorf("failed to render %s/%s prompt: %w", mode, detailLevel, err)
	}
	return sb.String(), nil
}

// Modes lists the loaded template names, sorted.
func (pm *PromptManager) Modes() []string {
	modes := make([]string, 0, len(pm.templates))
	for mode := range pm.templates {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}
