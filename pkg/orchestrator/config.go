package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-hydrate/pkg/render/template/gotemplate"
)

// Config is the file form of the orchestrator options. JSON documents are
// accepted as YAML.
type Config struct {
	// Templates is a directory of template documents.
	Templates string `yaml:"templates" json:"templates"`
	// Preset is a PresetTransformer document applied to every template.
	Preset string `yaml:"preset" json:"preset"`
	// Keywords are compiled as strict free variables.
	Keywords []string `yaml:"keywords" json:"keywords"`
	// Sanitize names the sanitizer policy for trusting appends.
	Sanitize string `yaml:"sanitize" json:"sanitize"`
	// Layout is the default page layout.
	Layout string `yaml:"layout" json:"layout"`
	// Mode is the default render mode.
	Mode string `yaml:"mode" json:"mode"`
	// Shell customises the built-in page layout.
	Shell struct {
		// Dir holds templates that replace the embedded shell by name.
		Dir string `yaml:"dir" json:"dir"`
		// Template names the shell template.
		Template string `yaml:"template" json:"template"`
		// Locale is the document language when a request names none.
		Locale string `yaml:"locale" json:"locale"`
		// Globals are values every shell template sees.
		Globals map[string]any `yaml:"globals" json:"globals"`
	} `yaml:"shell" json:"shell"`
	// Theme selects a theme manifest by name and variant.
	Theme struct {
		Name      string   `yaml:"name" json:"name"`
		Variant   string   `yaml:"variant" json:"variant"`
		Manifests []string `yaml:"manifests" json:"manifests"`
	} `yaml:"theme" json:"theme"`
}

// LoadConfig reads a Config file. Relative paths inside it are resolved
// against the file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("orchestrator: parse config %s: %w", path, err)
	}
	base := filepath.Dir(path)
	cfg.Templates = resolvePath(base, cfg.Templates)
	cfg.Preset = resolvePath(base, cfg.Preset)
	cfg.Shell.Dir = resolvePath(base, cfg.Shell.Dir)
	for i, manifest := range cfg.Theme.Manifests {
		cfg.Theme.Manifests[i] = resolvePath(base, manifest)
	}
	return &cfg, nil
}

// Options converts the config into orchestrator options.
func (c *Config) Options() ([]Option, error) {
	if c == nil {
		return nil, nil
	}
	var options []Option
	if c.Templates != "" {
		options = append(options, WithTemplateFS(os.DirFS(c.Templates)))
	}
	if c.Preset != "" {
		data, err := os.ReadFile(c.Preset)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: read preset: %w", err)
		}
		preset, err := NewPresetTransformer(data)
		if err != nil {
			return nil, err
		}
		options = append(options, WithTransformer(preset))
	}
	if len(c.Keywords) > 0 {
		options = append(options, WithKeywords(c.Keywords...))
	}
	if c.Sanitize != "" {
		options = append(options, WithSanitizePolicy(c.Sanitize))
	}
	if c.Layout != "" {
		options = append(options, WithDefaultLayout(c.Layout))
	}
	if shell := c.shellOptions(); len(shell) > 0 {
		options = append(options, WithShell(shell...))
	}
	if len(c.Theme.Manifests) > 0 {
		manifests, err := LoadManifests(c.Theme.Manifests...)
		if err != nil {
			return nil, err
		}
		options = append(options, WithThemeManifests(manifests...))
	}
	if c.Theme.Name != "" || c.Theme.Variant != "" {
		options = append(options, WithThemeDefaults(c.Theme.Name, c.Theme.Variant))
	}
	return options, nil
}

func (c *Config) shellOptions() []gotemplate.LayoutOption {
	var options []gotemplate.LayoutOption
	if c.Shell.Template != "" {
		options = append(options, gotemplate.WithTemplateName(c.Shell.Template))
	}
	if c.Shell.Locale != "" {
		options = append(options, gotemplate.WithDefaultLocale(c.Shell.Locale))
	}
	var engine []gotemplate.Option
	if c.Shell.Dir != "" {
		engine = append(engine, gotemplate.WithShellDir(c.Shell.Dir))
	}
	if len(c.Shell.Globals) > 0 {
		engine = append(engine, gotemplate.WithGlobals(c.Shell.Globals))
	}
	if len(engine) > 0 {
		options = append(options, gotemplate.WithEngineOptions(engine...))
	}
	return options
}

func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
