package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartnote/heartnote/pkg/compose"
	"github.com/heartnote/heartnote/pkg/config"
	"github.com/heartnote/heartnote/pkg/fallback"
	"github.com/heartnote/heartnote/pkg/logger"
	"github.com/heartnote/heartnote/pkg/metrics"
	"github.com/heartnote/heartnote/pkg/providers"
	"github.com/heartnote/heartnote/pkg/safety"
)

// State is a step of a single generation request.
type State string

const (
	StateReceived         State = "RECEIVED"
	StateFiltered         State = "FILTERED"
	StateTemplateResolved State = "TEMPLATE_RESOLVED"
	StatePromptBuilt      State = "PROMPT_BUILT"
	StateGenerating       State = "GENERATING"

	StateDelivered       State = "DELIVERED"
	StateDegraded        State = "DEGRADED"
	StateBlocked         State = "BLOCKED"
	StateModeUnavailable State = "MODE_UNAVAILABLE"
)

// Terminal reports whether s ends a request.
func (s State) Terminal() bool {
	switch s {
	case StateDelivered, StateDegraded, StateBlocked, StateModeUnavailable:
		return true
	}
	return false
}

// ModeUnavailableMessage is returned when the requested mode cannot be served.
const ModeUnavailableMessage = "This writing mode is not available."

// DateLayout renders the {date} slot as dd/mm/YYYY.
const DateLayout = "02/01/2006"

var ErrDescriptionRequired = errors.New("description is required")

type Request struct {
	Mode        string `json:"mode"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description"`
	Tone        string `json:"tone,omitempty"`
	Language    string `json:"language,omitempty"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return ErrDescriptionRequired
	}
	return nil
}

type Result struct {
	Response   string `json:"response"`
	Blocked    bool   `json:"blocked"`
	IsFallback bool   `json:"is_fallback"`
	State      State  `json:"state"`
	Reason     string `json:"reason,omitempty"`
}

// Generator is the single call made to the language model.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Observer receives every finished request. It never sees user text.
type Observer func(Outcome)

// Outcome summarizes a finished request for activity feeds.
type Outcome struct {
	RequestID string        `json:"request_id"`
	Mode      string        `json:"mode"`
	Tone      string        `json:"tone"`
	Language  string        `json:"language"`
	State     State         `json:"state"`
	Reason    string        `json:"reason,omitempty"`
	Channel   string        `json:"channel"`
	Duration  time.Duration `json:"duration"`
	Time      time.Time     `json:"time"`
}

type Pipeline struct {
	filter    *safety.Filter
	registry  *compose.Registry
	fallback  *fallback.Resolver
	generator Generator
	now       func() time.Time
	observers []Observer
}

type Option func(*Pipeline)

// WithClock overrides the clock used for the {date} slot.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithObserver registers fn to be called after every request.
func WithObserver(fn Observer) Option {
	return func(p *Pipeline) {
		p.observers = append(p.observers, fn)
	}
}

func New(filter *safety.Filter, registry *compose.Registry, resolver *fallback.Resolver, gen Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		filter:    filter,
		registry:  registry,
		fallback:  resolver,
		generator: gen,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig wires every component from cfg.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Pipeline, error) {
	filter := safety.NewFilter(safety.WithExtraTerms(cfg.Safety.ExtraBlockedTerms, cfg.Safety.ExtraSelfHarmPhrases))

	var (
		registry *compose.Registry
		err      error
	)
	if cfg.Templates.Dir != "" {
		registry, err = compose.LoadRegistry(os.DirFS(cfg.Templates.Dir))
	} else {
		registry, err = compose.DefaultRegistry()
	}
	if err != nil {
		return nil, err
	}

	resolver, err := fallback.NewResolverFromConfig(cfg.Fallback)
	if err != nil {
		return nil, err
	}

	client, err := providers.NewClientFromConfig(ctx, cfg.Generation)
	if err != nil {
		return nil, err
	}

	return New(filter, registry, resolver, client, opts...), nil
}

// Registry exposes the loaded templates.
func (p *Pipeline) Registry() *compose.Registry {
	return p.registry
}

// Generate runs one request through the pipeline. The only error returned is
// ErrDescriptionRequired; every other outcome is encoded in the Result.
func (p *Pipeline) Generate(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	start := time.Now()
	rc := &run{
		id:      uuid.NewString(),
		channel: metrics.ChannelFromContext(ctx),
		state:   StateReceived,
	}

	res := p.run(ctx, req, rc)

	p.finish(rc, res, time.Since(start))
	return res, nil
}

// run tracks the request as it moves through states.
type run struct {
	id      string
	channel string
	mode    compose.Mode
	tone    compose.Tone
	lang    compose.Language
	state   State
}

func (r *run) advance(s State) {
	logger.DebugCF("pipeline", "State transition", map[string]any{
		"request_id": r.id,
		"from":       string(r.state),
		"to":         string(s),
	})
	r.state = s
}

func (p *Pipeline) run(ctx context.Context, req Request, rc *run) Result {
	rc.tone = compose.ResolveTone(req.Tone)
	rc.lang = compose.ResolveLanguage(req.Language)

	verdict := p.filter.Check(strings.Join([]string{req.Description, req.Name}, "\n"))
	if !verdict.Allowed {
		metrics.DefaultRecorder().RecordSafetyBlock(string(verdict.Category))
		return Result{
			Response: verdict.Message,
			Blocked:  true,
			State:    StateBlocked,
			Reason:   string(verdict.Category),
		}
	}
	rc.advance(StateFiltered)

	mode, ok := compose.ParseMode(req.Mode)
	if !ok {
		return modeUnavailable("unknown_mode")
	}
	rc.mode = mode
	tmpl, ok := p.registry.Template(mode)
	if !ok {
		return modeUnavailable("no_template")
	}
	rc.advance(StateTemplateResolved)

	slots := compose.Slots{
		compose.SlotName:     strings.TrimSpace(req.Name),
		compose.SlotDesc:     strings.TrimSpace(req.Description),
		compose.SlotTone:     rc.tone.Descriptor,
		compose.SlotDepth:    rc.tone.Style,
		compose.SlotDate:     p.now().Format(DateLayout),
		compose.SlotLanguage: rc.lang.Name,
	}
	prompt, err := compose.Assemble(tmpl, slots, rc.lang)
	if err != nil {
		logger.ErrorCF("pipeline", "Prompt assembly failed", map[string]any{
			"request_id": rc.id,
			"mode":       string(mode),
			"version":    tmpl.Version,
			"error":      err.Error(),
		})
		return modeUnavailable("assembly_failed")
	}
	rc.advance(StatePromptBuilt)

	rc.advance(StateGenerating)
	text, err := p.generator.Generate(ctx, prompt)
	if err == nil {
		return Result{Response: text, State: StateDelivered}
	}

	kind := providers.KindOf(err)
	var sel fallback.Selection
	if kind == providers.KindRateLimited {
		sel = p.fallback.RateLimited()
	} else {
		sel = p.fallback.Resolve(mode, rc.tone.Level, slots)
	}
	metrics.DefaultRecorder().RecordFallback(string(mode), string(rc.tone.Level), string(sel.Source))
	logger.WarnCF("pipeline", "Serving fallback", map[string]any{
		"request_id": rc.id,
		"mode":       string(mode),
		"kind":       string(kind),
		"source":     string(sel.Source),
		"error":      err.Error(),
	})

	return Result{
		Response:   sel.Text,
		IsFallback: true,
		State:      StateDegraded,
		Reason:     string(kind),
	}
}

func modeUnavailable(reason string) Result {
	return Result{
		Response: ModeUnavailableMessage,
		State:    StateModeUnavailable,
		Reason:   reason,
	}
}

func (p *Pipeline) finish(rc *run, res Result, d time.Duration) {
	rc.state = res.State
	mode := string(rc.mode)
	if mode == "" {
		mode = "unknown"
	}

	metrics.DefaultRecorder().RecordGeneration(mode, string(res.State), res.Reason, rc.channel, d)

	fields := map[string]any{
		"request_id": rc.id,
		"mode":       mode,
		"tone":       string(rc.tone.Level),
		"language":   rc.lang.Code,
		"state":      string(res.State),
		"channel":    rc.channel,
		"duration":   d.String(),
	}
	if res.Reason != "" {
		fields["reason"] = res.Reason
	}
	logger.InfoCF("pipeline", "Request finished", fields)

	out := Outcome{
		RequestID: rc.id,
		Mode:      mode,
		Tone:      string(rc.tone.Level),
		Language:  rc.lang.Code,
		State:     res.State,
		Reason:    res.Reason,
		Channel:   rc.channel,
		Duration:  d,
		Time:      p.now(),
	}
	for _, fn := range p.observers {
		fn(out)
	}
}
