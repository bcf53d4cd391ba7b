package fallback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartnote/heartnote/pkg/compose"
	"github.com/heartnote/heartnote/pkg/config"
)

func TestDefaultCatalog_CoversEveryModeAndTone(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	for _, m := range compose.AllModes() {
		for _, tone := range compose.Tones() {
			list, used, ok := c.candidates(m, tone.Level)
			require.True(t, ok, "mode %s", m)
			assert.Equal(t, tone.Level, used)
			assert.NotEmpty(t, list)
		}
	}
}

func TestResolve_InterpolatesSlots(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	r := NewResolver(c, FixedPicker(0))

	sel := r.Resolve(compose.ModeJournal, compose.ToneSoft, compose.Slots{compose.SlotDate: "16/10/2026"})
	assert.Equal(t, SourceCatalog, sel.Source)
	assert.Contains(t, sel.Text, "Date: 16/10/2026")

	sel = r.Resolve(compose.ModeLetter, compose.ToneSoft, compose.Slots{compose.SlotName: "Asha"})
	assert.Contains(t, sel.Text, "Dear Asha,")
}

func TestResolve_MissingSlotRendersEmpty(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	r := NewResolver(c, FixedPicker(0))

	sel := r.Resolve(compose.ModeLetter, compose.ToneSoft, nil)
	assert.Equal(t, SourceCatalog, sel.Source)
	assert.Contains(t, sel.Text, "Dear Someone dear,")
	assert.NotContains(t, sel.Text, "<no value>")
}

const partialCatalog = `
version: 1
generic: generic text
rate_limited: slow down text
modes:
  quote:
    default_tone: soft
    tones:
      soft: [soft quote one, soft quote two]
      deep: [deep quote]
`

func TestResolve_ToneFallsBackToDefault(t *testing.T) {
	c, err := ParseCatalog([]byte(partialCatalog))
	require.NoError(t, err)
	r := NewResolver(c, FixedPicker(0))

	sel := r.Resolve(compose.ModeQuote, compose.ToneBalanced, nil)
	assert.Equal(t, "soft quote one", sel.Text)
	assert.Equal(t, compose.ToneSoft, sel.Tone)
	assert.Equal(t, SourceCatalog, sel.Source)
}

func TestResolve_MissingModeUsesGeneric(t *testing.T) {
	c, err := ParseCatalog([]byte(partialCatalog))
	require.NoError(t, err)
	r := NewResolver(c, nil)

	sel := r.Resolve(compose.ModePoem, compose.ToneDeep, nil)
	assert.Equal(t, "generic text", sel.Text)
	assert.Equal(t, SourceGeneric, sel.Source)
}

func TestResolve_ResultAlwaysFromCandidates(t *testing.T) {
	c, err := ParseCatalog([]byte(partialCatalog))
	require.NoError(t, err)
	r := NewResolver(c, NewRandomPicker(42))

	for i := 0; i < 50; i++ {
		sel := r.Resolve(compose.ModeQuote, compose.ToneSoft, nil)
		assert.Contains(t, []string{"soft quote one", "soft quote two"}, sel.Text)
	}
}

func TestRateLimited_IsDistinct(t *testing.T) {
	c, err := ParseCatalog([]byte(partialCatalog))
	require.NoError(t, err)
	r := NewResolver(c, nil)

	sel := r.RateLimited()
	assert.Equal(t, "slow down text", sel.Text)
	assert.Equal(t, SourceRateLimited, sel.Source)
	assert.NotEqual(t, r.Generic(), sel.Text)
}

func TestPickers(t *testing.T) {
	t.Run("round robin cycles", func(t *testing.T) {
		p := NewRoundRobinPicker()
		got := []int{p.Pick(3), p.Pick(3), p.Pick(3), p.Pick(3)}
		assert.Equal(t, []int{0, 1, 2, 0}, got)
	})

	t.Run("random is seeded", func(t *testing.T) {
		a, b := NewRandomPicker(7), NewRandomPicker(7)
		for i := 0; i < 20; i++ {
			assert.Equal(t, a.Pick(10), b.Pick(10))
		}
	})

	t.Run("single candidate", func(t *testing.T) {
		assert.Equal(t, 0, NewRandomPicker(1).Pick(1))
		assert.Equal(t, 0, NewRoundRobinPicker().Pick(1))
	})

	t.Run("fixed clamps", func(t *testing.T) {
		assert.Equal(t, 0, FixedPicker(5).Pick(2))
		assert.Equal(t, 1, FixedPicker(1).Pick(2))
	})
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no generic", "version: 1\nrate_limited: x\n"},
		{"no rate limited", "version: 1\ngeneric: x\n"},
		{"unknown mode", "generic: x\nrate_limited: y\nmodes:\n  limerick:\n    default_tone: soft\n    tones:\n      soft: [a]\n"},
		{"unknown tone", "generic: x\nrate_limited: y\nmodes:\n  poem:\n    default_tone: soft\n    tones:\n      angry: [a]\n"},
		{"empty list", "generic: x\nrate_limited: y\nmodes:\n  poem:\n    default_tone: soft\n    tones:\n      soft: []\n"},
		{"default tone missing", "generic: x\nrate_limited: y\nmodes:\n  poem:\n    default_tone: deep\n    tones:\n      soft: [a]\n"},
		{"bad template", "generic: x\nrate_limited: y\nmodes:\n  poem:\n    default_tone: soft\n    tones:\n      soft: [\"{{.date\"]\n"},
		{"not yaml", "::::"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestNewResolverFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(partialCatalog), 0o600))

	r, err := NewResolverFromConfig(config.FallbackConfig{
		Selection:   config.SelectionRoundRobin,
		CatalogPath: path,
	})
	require.NoError(t, err)

	first := r.Resolve(compose.ModeQuote, compose.ToneSoft, nil)
	second := r.Resolve(compose.ModeQuote, compose.ToneSoft, nil)
	assert.Equal(t, "soft quote one", first.Text)
	assert.Equal(t, "soft quote two", second.Text)

	_, err = NewResolverFromConfig(config.FallbackConfig{CatalogPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
