package providers

import (
	"context"
	"fmt"
)

// DisabledBackend stands in for a backend that cannot run, for example one
// configured without credentials. Every call fails as backend_disabled.
type DisabledBackend struct {
	name   string
	model  string
	reason string
}

func NewDisabledBackend(name, model, reason string) *DisabledBackend {
	return &DisabledBackend{name: name, model: model, reason: reason}
}

func (b *DisabledBackend) Name() string  { return b.name }
func (b *DisabledBackend) Model() string { return b.model }

func (b *DisabledBackend) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return "", newError(KindDisabled, b.name, 0, fmt.Errorf("%w: %s", ErrBackendDisabled, b.reason))
}
