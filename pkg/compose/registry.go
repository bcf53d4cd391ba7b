package compose

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
var embeddedTemplates embed.FS

// Slot names available to template bodies.
const (
	SlotName     = "name"
	SlotDesc     = "desc"
	SlotTone     = "tone"
	SlotDepth    = "depth"
	SlotDate     = "date"
	SlotLanguage = "language"
)

var knownSlots = map[string]bool{
	SlotName:     true,
	SlotDesc:     true,
	SlotTone:     true,
	SlotDepth:    true,
	SlotDate:     true,
	SlotLanguage: true,
}

// Constraints document the shape a template asks the model for. They are not
// enforced on the output.
type Constraints struct {
	MinWords   int      `yaml:"min_words,omitempty" json:"min_words,omitempty"`
	MaxWords   int      `yaml:"max_words,omitempty" json:"max_words,omitempty"`
	Lines      int      `yaml:"lines,omitempty" json:"lines,omitempty"`
	Paragraphs int      `yaml:"paragraphs,omitempty" json:"paragraphs,omitempty"`
	Banned     []string `yaml:"banned,omitempty" json:"banned,omitempty"`
}

// Template is one immutable prompt definition.
type Template struct {
	Mode        Mode        `yaml:"mode" json:"mode"`
	Version     int         `yaml:"version" json:"version"`
	Title       string      `yaml:"title" json:"title"`
	Slots       []string    `yaml:"slots" json:"slots"`
	Constraints Constraints `yaml:"constraints" json:"constraints"`
	Body        string      `yaml:"body" json:"-"`

	tmpl *template.Template
}

// Registry maps every Mode to exactly one Template. Lookups are total over
// the enumeration once LoadRegistry succeeds.
type Registry struct {
	templates map[Mode]*Template
}

// DefaultRegistry loads the templates compiled into the binary.
func DefaultRegistry() (*Registry, error) {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, err
	}
	return LoadRegistry(sub)
}

// LoadRegistry reads every *.yaml file at the root of fsys.
func LoadRegistry(fsys fs.FS) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	r := &Registry{templates: make(map[Mode]*Template, len(allModes))}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := path.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		t, err := parseTemplate(fsys, e.Name())
		if err != nil {
			return nil, err
		}
		if _, dup := r.templates[t.Mode]; dup {
			return nil, fmt.Errorf("template %s: duplicate definition for mode %q", e.Name(), t.Mode)
		}
		r.templates[t.Mode] = t
	}

	var missing []string
	for _, m := range allModes {
		if _, ok := r.templates[m]; !ok {
			missing = append(missing, string(m))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("no template for modes: %s", strings.Join(missing, ", "))
	}
	return r, nil
}

func parseTemplate(fsys fs.FS, name string) (*Template, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}

	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	if !t.Mode.Valid() {
		return nil, fmt.Errorf("template %s: unknown mode %q", name, t.Mode)
	}
	if t.Version <= 0 {
		return nil, fmt.Errorf("template %s: version must be positive", name)
	}
	if strings.TrimSpace(t.Body) == "" {
		return nil, fmt.Errorf("template %s: empty body", name)
	}
	for _, s := range t.Slots {
		if !knownSlots[s] {
			return nil, fmt.Errorf("template %s: unknown slot %q", name, s)
		}
	}

	t.tmpl, err = template.New(string(t.Mode)).Option("missingkey=error").Parse(t.Body)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	return &t, nil
}

func (r *Registry) Template(m Mode) (*Template, bool) {
	t, ok := r.templates[m]
	return t, ok
}

// Lookup resolves a raw mode key, aliases included.
func (r *Registry) Lookup(key string) (*Template, bool) {
	m, ok := ParseMode(key)
	if !ok {
		return nil, false
	}
	return r.Template(m)
}

// Templates returns the loaded templates in enumeration order.
func (r *Registry) Templates() []*Template {
	out := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	order := make(map[Mode]int, len(allModes))
	for i, m := range allModes {
		order[m] = i
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i].Mode] < order[out[j].Mode] })
	return out
}
