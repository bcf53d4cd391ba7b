package compose

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in     string
		want   Mode
		wantOK bool
	}{
		{"poem", ModePoem, true},
		{"  Poem ", ModePoem, true},
		{"poems", ModePoem, true},
		{"letters", ModeLetter, true},
		{"notes", ModeNote, true},
		{"QUOTES", ModeQuote, true},
		{"", ModeUnknown, false},
		{"limerick", ModeUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseMode(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestResolveTone_NeverEmpty(t *testing.T) {
	tests := []struct {
		key  string
		want ToneLevel
	}{
		{"soft", ToneSoft},
		{"balanced", ToneBalanced},
		{"deep", ToneDeep},
		{"light", ToneSoft},
		{"medium", ToneBalanced},
		{" DEEP ", ToneDeep},
		{"", ToneSoft},
		{"furious", ToneSoft},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			tone := ResolveTone(tt.key)
			assert.Equal(t, tt.want, tone.Level)
			assert.NotEmpty(t, tone.Descriptor)
			assert.NotEmpty(t, tone.Style)
		})
	}
}

func TestIsToneKey(t *testing.T) {
	assert.True(t, IsToneKey("deep"))
	assert.True(t, IsToneKey("Light"))
	assert.False(t, IsToneKey("hello"))
}

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"EN-us", "en"},
		{"pt_BR", "pt"},
		{"hindi", "hi"},
		{"", "en"},
		{"klingon", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveLanguage(tt.in).Code)
		})
	}
}

func TestDefaultRegistry_CoversEveryMode(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)

	for _, m := range AllModes() {
		tmpl, ok := reg.Template(m)
		require.True(t, ok, "mode %s", m)
		assert.Equal(t, m, tmpl.Mode)
		assert.Positive(t, tmpl.Version)
	}
	assert.Len(t, reg.Templates(), len(AllModes()))
}

func TestRegistry_Lookup(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)

	tmpl, ok := reg.Lookup("quotes")
	require.True(t, ok)
	assert.Equal(t, ModeQuote, tmpl.Mode)

	_, ok = reg.Lookup("limerick")
	assert.False(t, ok)
}

func TestDefaultTemplates_RenderWithFullSlots(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)

	tone := ResolveTone("deep")
	slots := Slots{
		SlotName:     "Mira",
		SlotDesc:     "a quiet afternoon",
		SlotTone:     tone.Descriptor,
		SlotDepth:    tone.Style,
		SlotDate:     "03/04/2026",
		SlotLanguage: "English",
	}
	for _, tmpl := range reg.Templates() {
		t.Run(string(tmpl.Mode), func(t *testing.T) {
			prompt, err := Assemble(tmpl, slots, DefaultLanguage)
			require.NoError(t, err)
			assert.Contains(t, prompt, "a quiet afternoon")
			assert.Contains(t, prompt, tone.Descriptor)
			assert.NotContains(t, prompt, "{{")
		})
	}
}

func TestAssemble_LanguageDirective(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)
	tmpl, _ := reg.Template(ModeQuote)

	prompt, err := Assemble(tmpl, Slots{SlotName: "", SlotDesc: "rain", SlotTone: "calm"}, ResolveLanguage("fr"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(prompt, "[LANG=fr] Write the entire response in French."))
}

func TestAssemble_JournalCarriesDate(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)
	tmpl, _ := reg.Template(ModeJournal)

	prompt, err := Assemble(tmpl, Slots{
		SlotName: "", SlotDesc: "long day", SlotTone: "calm", SlotDepth: "grounded", SlotDate: "16/10/2026",
	}, DefaultLanguage)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Date: 16/10/2026")
}

func TestAssemble_LetterGreetingWithoutName(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)
	tmpl, _ := reg.Template(ModeLetter)

	prompt, err := Assemble(tmpl, Slots{SlotName: "", SlotDesc: "x", SlotTone: "y", SlotDepth: "z"}, DefaultLanguage)
	require.NoError(t, err)
	assert.Contains(t, prompt, `"Dear Someone dear,"`)
}

func testFS(overrides map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for _, m := range AllModes() {
		fsys[string(m)+".yaml"] = &fstest.MapFile{Data: []byte(
			"mode: " + string(m) + "\nversion: 1\nslots: [name, desc, tone]\nbody: \"{{.desc}} / {{.tone}}\"\n",
		)}
	}
	for name, body := range overrides {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return fsys
}

func TestAssemble_CoreRetryRecovers(t *testing.T) {
	reg, err := LoadRegistry(testFS(map[string]string{
		"journal.yaml": "mode: journal\nversion: 1\nslots: [desc, tone, date]\nbody: \"{{.desc}} {{.tone}}{{if .date}} {{slice .date 0 40}}{{end}}\"\n",
	}))
	require.NoError(t, err)
	tmpl, _ := reg.Template(ModeJournal)

	// the date value breaks the body; the core pass blanks it and succeeds
	prompt, err := Assemble(tmpl, Slots{SlotName: "", SlotDesc: "sea", SlotTone: "calm", SlotDate: "16/10/2026"}, DefaultLanguage)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(prompt, "sea calm"))
}

func TestAssemble_UnknownSlotFailsBothPasses(t *testing.T) {
	reg, err := LoadRegistry(testFS(map[string]string{
		"poem.yaml": "mode: poem\nversion: 1\nslots: [desc]\nbody: \"{{.desc}} {{.mood}}\"\n",
	}))
	require.NoError(t, err)
	tmpl, _ := reg.Template(ModePoem)

	_, err = Assemble(tmpl, Slots{SlotName: "", SlotDesc: "sea", SlotTone: "calm"}, DefaultLanguage)
	assert.True(t, errors.Is(err, ErrAssembly))
}

func TestAssemble_IgnoresExtraSlots(t *testing.T) {
	reg, err := LoadRegistry(testFS(nil))
	require.NoError(t, err)
	tmpl, _ := reg.Template(ModeNote)

	prompt, err := Assemble(tmpl, Slots{SlotDesc: "sea", SlotTone: "calm", "extra": "x"}, DefaultLanguage)
	require.NoError(t, err)
	assert.Contains(t, prompt, "sea / calm")
}

func TestLoadRegistry_Errors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{
			name: "missing mode",
			fsys: func() fstest.MapFS {
				f := testFS(nil)
				delete(f, "story.yaml")
				return f
			}(),
		},
		{
			name: "unknown mode",
			fsys: testFS(map[string]string{"x.yaml": "mode: limerick\nversion: 1\nbody: hi\n"}),
		},
		{
			name: "duplicate mode",
			fsys: testFS(map[string]string{"poem2.yaml": "mode: poem\nversion: 1\nbody: hi\n"}),
		},
		{
			name: "unknown slot",
			fsys: testFS(map[string]string{"poem.yaml": "mode: poem\nversion: 1\nslots: [mood]\nbody: hi\n"}),
		},
		{
			name: "bad template syntax",
			fsys: testFS(map[string]string{"poem.yaml": "mode: poem\nversion: 1\nbody: \"{{.desc\"\n"}),
		},
		{
			name: "zero version",
			fsys: testFS(map[string]string{"poem.yaml": "mode: poem\nbody: hi\n"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegistry(tt.fsys)
			assert.Error(t, err)
		})
	}
}
