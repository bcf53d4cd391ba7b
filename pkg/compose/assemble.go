package compose

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

var ErrAssembly = errors.New("prompt assembly failed")

// Slots carries the values substituted into a template body.
type Slots map[string]string

// core keeps only name, desc and tone. Other known slots stay present but
// empty so bodies that guard on them still execute.
func (s Slots) core() Slots {
	out := make(Slots, len(knownSlots))
	for k := range knownSlots {
		out[k] = ""
	}
	out[SlotName] = s[SlotName]
	out[SlotDesc] = s[SlotDesc]
	out[SlotTone] = s[SlotTone]
	return out
}

// Render executes the body with slots. A slot referenced by the body but absent
// from slots is an error.
func (t *Template) Render(slots Slots) (string, error) {
	if t.tmpl == nil {
		return "", fmt.Errorf("template %s not compiled", t.Mode)
	}
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, map[string]string(slots)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// LanguageDirective is placed ahead of every prompt, independent of the body.
func LanguageDirective(lang Language) string {
	return fmt.Sprintf("[LANG=%s] Write the entire response in %s.", lang.Code, lang.Name)
}

// Assemble builds the final prompt. If the full slot set fails it retries once
// with the core slots; a second failure is reported as ErrAssembly.
func Assemble(t *Template, slots Slots, lang Language) (string, error) {
	body, err := t.Render(slots)
	if err != nil {
		var retryErr error
		body, retryErr = t.Render(slots.core())
		if retryErr != nil {
			return "", fmt.Errorf("%w: mode %s: %v", ErrAssembly, t.Mode, retryErr)
		}
	}

	return LanguageDirective(lang) + "\n\n" + strings.TrimSpace(body), nil
}
