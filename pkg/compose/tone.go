package compose

import "strings"

type ToneLevel string

const (
	ToneSoft     ToneLevel = "soft"
	ToneBalanced ToneLevel = "balanced"
	ToneDeep     ToneLevel = "deep"
)

// DefaultTone is used for empty or unrecognized tone keys.
const DefaultTone = ToneSoft

// Tone is a static profile. Descriptor fills the {tone} slot and Style the
// {depth} slot.
type Tone struct {
	Level      ToneLevel `json:"level"`
	Depth      string    `json:"depth"`
	Descriptor string    `json:"descriptor"`
	Style      string    `json:"style"`
}

var tones = map[ToneLevel]Tone{
	ToneSoft: {
		Level:      ToneSoft,
		Depth:      "light",
		Descriptor: "gentle, warm, simple, soothing, caring",
		Style:      "soft, reflective, gentle emotional clarity",
	},
	ToneBalanced: {
		Level:      ToneBalanced,
		Depth:      "medium",
		Descriptor: "calm, steady, grounded, supportive",
		Style:      "thoughtful, grounded, emotionally layered",
	},
	ToneDeep: {
		Level:      ToneDeep,
		Depth:      "deep",
		Descriptor: "emotional, reflective, poetic, heartfelt",
		Style:      "rich, profound, cinematic emotional depth",
	},
}

// depth keys from the web form map onto tone levels
var toneAliases = map[string]ToneLevel{
	"light":  ToneSoft,
	"medium": ToneBalanced,
}

// ResolveTone never fails: unknown keys resolve to the default profile.
func ResolveTone(key string) Tone {
	k := strings.ToLower(strings.TrimSpace(key))
	if t, ok := tones[ToneLevel(k)]; ok {
		return t
	}
	if lvl, ok := toneAliases[k]; ok {
		return tones[lvl]
	}
	return tones[DefaultTone]
}

// IsToneKey reports whether key names a tone level or depth alias.
func IsToneKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if _, ok := tones[ToneLevel(k)]; ok {
		return true
	}
	_, ok := toneAliases[k]
	return ok
}

// Tones lists the profiles from softest to deepest.
func Tones() []Tone {
	return []Tone{tones[ToneSoft], tones[ToneBalanced], tones[ToneDeep]}
}
