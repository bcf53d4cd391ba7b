package fallback

import (
	"bytes"
	"strings"

	"github.com/heartnote/heartnote/pkg/compose"
	"github.com/heartnote/heartnote/pkg/config"
	"github.com/heartnote/heartnote/pkg/logger"
)

// Source tells where a canned response came from.
type Source string

const (
	SourceCatalog     Source = "catalog"
	SourceGeneric     Source = "generic"
	SourceRateLimited Source = "rate_limited"
)

type Selection struct {
	Text   string
	Source Source
	Tone   compose.ToneLevel
}

// Resolver turns a classified generation failure into text. It is read-only
// apart from the injected picker.
type Resolver struct {
	catalog *Catalog
	picker  Picker
}

func NewResolver(catalog *Catalog, picker Picker) *Resolver {
	if picker == nil {
		picker = NewRandomPicker(0)
	}
	return &Resolver{catalog: catalog, picker: picker}
}

// NewResolverFromConfig loads the configured catalog and picker.
func NewResolverFromConfig(cfg config.FallbackConfig) (*Resolver, error) {
	var (
		catalog *Catalog
		err     error
	)
	if cfg.CatalogPath != "" {
		catalog, err = LoadCatalogFile(cfg.CatalogPath)
	} else {
		catalog, err = DefaultCatalog()
	}
	if err != nil {
		return nil, err
	}

	var picker Picker
	switch cfg.Selection {
	case config.SelectionRoundRobin:
		picker = NewRoundRobinPicker()
	default:
		picker = NewRandomPicker(cfg.Seed)
	}
	return NewResolver(catalog, picker), nil
}

// Resolve picks a canned response for mode and tone. A missing tone uses the
// mode's default tone; a missing mode yields the generic message.
func (r *Resolver) Resolve(mode compose.Mode, tone compose.ToneLevel, slots compose.Slots) Selection {
	list, used, ok := r.catalog.candidates(mode, tone)
	if !ok || len(list) == 0 {
		return Selection{Text: r.catalog.Generic, Source: SourceGeneric, Tone: tone}
	}

	tmpl := list[r.picker.Pick(len(list))]
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string(slots)); err != nil {
		logger.WarnCF("fallback", "Failed to render fallback entry", map[string]any{
			"mode":  string(mode),
			"tone":  string(used),
			"error": err.Error(),
		})
		return Selection{Text: r.catalog.Generic, Source: SourceGeneric, Tone: used}
	}
	return Selection{Text: strings.TrimSpace(buf.String()), Source: SourceCatalog, Tone: used}
}

// RateLimited returns the distinct "try again shortly" message. It never
// consumes a catalog entry.
func (r *Resolver) RateLimited() Selection {
	return Selection{Text: r.catalog.RateLimited, Source: SourceRateLimited}
}

// Generic returns the catch-all message.
func (r *Resolver) Generic() string {
	return r.catalog.Generic
}
