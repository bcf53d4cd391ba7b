package compose

import "strings"

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var DefaultLanguage = Language{Code: "en", Name: "English"}

var languages = []Language{
	DefaultLanguage,
	{Code: "hi", Name: "Hindi"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "it", Name: "Italian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "ta", Name: "Tamil"},
	{Code: "te", Name: "Telugu"},
	{Code: "bn", Name: "Bengali"},
	{Code: "mr", Name: "Marathi"},
	{Code: "ja", Name: "Japanese"},
}

// ResolveLanguage accepts ISO codes, regional tags ("pt-BR", "en_US") and
// English names. Anything else falls back to English.
func ResolveLanguage(s string) Language {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return DefaultLanguage
	}
	key = strings.ReplaceAll(key, "_", "-")
	if i := strings.IndexByte(key, '-'); i > 0 {
		key = key[:i]
	}
	for _, l := range languages {
		if l.Code == key || strings.ToLower(l.Name) == key {
			return l
		}
	}
	return DefaultLanguage
}

func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}
