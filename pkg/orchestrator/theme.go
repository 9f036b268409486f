package orchestrator

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

// ErrThemeNotFound reports a theme or variant the selector does not know.
var ErrThemeNotFound = errors.New("orchestrator: theme not found")

// ManifestSelector selects among a fixed set of theme manifests.
type ManifestSelector struct {
	manifests map[string]*theme.Manifest
	names     []string
}

var _ theme.ThemeSelector = (*ManifestSelector)(nil)

// NewManifestSelector indexes manifests by name. The first manifest is the
// default when a selection names no theme.
func NewManifestSelector(manifests ...*theme.Manifest) *ManifestSelector {
	s := &ManifestSelector{manifests: make(map[string]*theme.Manifest, len(manifests))}
	for _, manifest := range manifests {
		if manifest == nil || manifest.Name == "" {
			continue
		}
		if _, exists := s.manifests[manifest.Name]; !exists {
			s.names = append(s.names, manifest.Name)
		}
		s.manifests[manifest.Name] = manifest
	}
	return s
}

// Select implements theme.ThemeSelector.
func (s *ManifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if name == "" && len(s.names) > 0 {
		name = s.names[0]
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrThemeNotFound, name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("%w: %q variant %q", ErrThemeNotFound, name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// LoadManifests decodes theme manifests from YAML or JSON files.
func LoadManifests(paths ...string) ([]*theme.Manifest, error) {
	manifests := make([]*theme.Manifest, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: read theme manifest: %w", err)
		}
		manifest := &theme.Manifest{}
		if err := yaml.Unmarshal(data, manifest); err != nil {
			return nil, fmt.Errorf("orchestrator: parse theme manifest %s: %w", p, err)
		}
		if manifest.Name == "" {
			return nil, fmt.Errorf("orchestrator: theme manifest %s has no name", p)
		}
		manifests = append(manifests, manifest)
	}
	return manifests, nil
}

// rendererConfig merges a selection into the config layouts and templates
// read: fallbacks, then manifest templates and tokens, then the variant's.
// Every token also becomes a --token CSS variable.
func rendererConfig(selection *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	cfg := &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: mergeStrings(nil, fallbacks),
		Tokens:   map[string]string{},
		CSSVars:  map[string]string{},
	}

	var prefix string
	files := map[string]string{}
	if manifest := selection.Manifest; manifest != nil {
		cfg.Partials = mergeStrings(cfg.Partials, manifest.Templates)
		cfg.Tokens = mergeStrings(cfg.Tokens, manifest.Tokens)
		prefix = manifest.Assets.Prefix
		files = mergeStrings(files, manifest.Assets.Files)

		if v, ok := manifest.Variants[selection.Variant]; ok {
			cfg.Partials = mergeStrings(cfg.Partials, v.Templates)
			cfg.Tokens = mergeStrings(cfg.Tokens, v.Tokens)
			files = mergeStrings(files, v.Assets.Files)
			if v.Assets.Prefix != "" {
				prefix = v.Assets.Prefix
			}
		}
	}
	for key, value := range cfg.Tokens {
		cfg.CSSVars["--"+key] = value
	}
	cfg.AssetURL = func(key string) string {
		file, ok := files[key]
		if !ok || file == "" {
			return ""
		}
		if strings.Contains(file, "://") || strings.HasPrefix(file, "/") || prefix == "" {
			return file
		}
		return path.Join(prefix, file)
	}
	return cfg
}

// themeEnv is the value templates see as the theme free variable.
func themeEnv(cfg *theme.RendererConfig) map[string]any {
	out := make(map[string]any, len(cfg.Tokens))
	for key, value := range cfg.Tokens {
		out[key] = value
	}
	return out
}

func mergeStrings(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
