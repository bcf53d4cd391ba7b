package fallback

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/heartnote/heartnote/pkg/compose"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

// Catalog is the static table of canned responses keyed by mode and tone.
type Catalog struct {
	Version     int                  `yaml:"version"`
	Generic     string               `yaml:"generic"`
	RateLimited string               `yaml:"rate_limited"`
	Modes       map[string]ModeEntry `yaml:"modes"`

	compiled map[compose.Mode]map[compose.ToneLevel][]*template.Template
	defaults map[compose.Mode]compose.ToneLevel
}

type ModeEntry struct {
	DefaultTone string              `yaml:"default_tone"`
	Tones       map[string][]string `yaml:"tones"`
}

// DefaultCatalog parses the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(embeddedCatalog)
}

// LoadCatalogFile replaces the built-in catalog with one from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fallback catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog validates and compiles a YAML catalog. Modes may be missing
// (the generic message covers them) but every listed mode needs a usable
// default tone.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse fallback catalog: %w", err)
	}
	if strings.TrimSpace(c.Generic) == "" {
		return nil, fmt.Errorf("fallback catalog: generic message is empty")
	}
	if strings.TrimSpace(c.RateLimited) == "" {
		return nil, fmt.Errorf("fallback catalog: rate_limited message is empty")
	}

	c.compiled = make(map[compose.Mode]map[compose.ToneLevel][]*template.Template, len(c.Modes))
	c.defaults = make(map[compose.Mode]compose.ToneLevel, len(c.Modes))

	for key, entry := range c.Modes {
		mode, ok := compose.ParseMode(key)
		if !ok {
			return nil, fmt.Errorf("fallback catalog: unknown mode %q", key)
		}
		byTone := make(map[compose.ToneLevel][]*template.Template, len(entry.Tones))
		for toneKey, texts := range entry.Tones {
			if !compose.IsToneKey(toneKey) {
				return nil, fmt.Errorf("fallback catalog: mode %s: unknown tone %q", key, toneKey)
			}
			if len(texts) == 0 {
				return nil, fmt.Errorf("fallback catalog: mode %s tone %s has no entries", key, toneKey)
			}
			level := compose.ResolveTone(toneKey).Level
			for i, text := range texts {
				tmpl, err := template.New(fmt.Sprintf("%s.%s.%d", key, toneKey, i)).
					Option("missingkey=zero").
					Parse(text)
				if err != nil {
					return nil, fmt.Errorf("fallback catalog: mode %s tone %s entry %d: %w", key, toneKey, i, err)
				}
				byTone[level] = append(byTone[level], tmpl)
			}
		}

		def := compose.ResolveTone(entry.DefaultTone).Level
		if _, ok := byTone[def]; !ok {
			return nil, fmt.Errorf("fallback catalog: mode %s has no entries for default tone %s", key, def)
		}
		c.compiled[mode] = byTone
		c.defaults[mode] = def
	}
	return &c, nil
}

// candidates returns the entries for mode and tone, falling back to the
// mode's default tone. The tone actually used is returned alongside.
func (c *Catalog) candidates(mode compose.Mode, tone compose.ToneLevel) ([]*template.Template, compose.ToneLevel, bool) {
	byTone, ok := c.compiled[mode]
	if !ok {
		return nil, "", false
	}
	if list, ok := byTone[tone]; ok {
		return list, tone, true
	}
	def := c.defaults[mode]
	return byTone[def], def, true
}
