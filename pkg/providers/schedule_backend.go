package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/heartnote/heartnote/pkg/config"
	"github.com/heartnote/heartnote/pkg/logger"
)

// ScheduleDisabled is the reserved backend name that turns generation off for
// the matching window.
const ScheduleDisabled = "disabled"

// ScheduleBackend routes each call to a configured backend chosen by day and
// time. Backends are built once up front; routing never creates clients.
type ScheduleBackend struct {
	schedule *config.ScheduleConfig
	backends map[string]Backend
	location *time.Location
	nowFunc  func() time.Time
}

func NewScheduleBackend(schedule *config.ScheduleConfig, backends map[string]Backend, location *time.Location) *ScheduleBackend {
	if location == nil {
		location = time.Local
	}
	return &ScheduleBackend{
		schedule: schedule,
		backends: backends,
		location: location,
		nowFunc:  time.Now,
	}
}

func (p *ScheduleBackend) matchRule(t time.Time) (*config.ScheduleRule, bool) {
	t = t.In(p.location)
	weekday := strings.ToLower(t.Weekday().String()[:3]) // mon, tue, etc.

	for _, rule := range p.schedule.Rules {
		if len(rule.Days) > 0 {
			dayMatch := false
			for _, d := range rule.Days {
				d = strings.ToLower(d)
				if d == weekday {
					dayMatch = true
					break
				}
				if d == "weekday" && weekday != "sat" && weekday != "sun" {
					dayMatch = true
					break
				}
				if d == "weekend" && (weekday == "sat" || weekday == "sun") {
					dayMatch = true
					break
				}
			}
			if !dayMatch {
				continue
			}
		}

		if rule.Hours != nil {
			nowMins := t.Hour()*60 + t.Minute()

			start, err := time.Parse("15:04", rule.Hours.Start)
			if err != nil {
				logger.ErrorCF("schedule", "Invalid start time", map[string]any{"error": err.Error(), "time": rule.Hours.Start})
				continue
			}
			end, err := time.Parse("15:04", rule.Hours.End)
			if err != nil {
				logger.ErrorCF("schedule", "Invalid end time", map[string]any{"error": err.Error(), "time": rule.Hours.End})
				continue
			}

			startMins := start.Hour()*60 + start.Minute()
			endMins := end.Hour()*60 + end.Minute()

			if startMins <= endMins {
				// Same day span (e.g. 09:00 to 17:00)
				if nowMins < startMins || nowMins >= endMins {
					continue
				}
			} else {
				// Overnight span (e.g. 22:00 to 06:00)
				if nowMins < startMins && nowMins >= endMins {
					continue
				}
			}
		}

		return &rule, true
	}

	return nil, false
}

// resolve returns the backend for t. An empty default means generation is
// off outside the scheduled windows.
func (p *ScheduleBackend) resolve(t time.Time) (Backend, string, error) {
	name := p.schedule.Default
	if rule, ok := p.matchRule(t); ok {
		name = rule.Backend
	}

	if name == "" || name == ScheduleDisabled {
		return nil, name, newError(KindDisabled, "schedule", 0, fmt.Errorf("%w: outside scheduled hours", ErrBackendDisabled))
	}
	backend, ok := p.backends[name]
	if !ok {
		return nil, name, newError(KindDisabled, "schedule", 0, fmt.Errorf("%w: unknown backend %q", ErrBackendDisabled, name))
	}
	return backend, name, nil
}

func (p *ScheduleBackend) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	backend, name, err := p.resolve(p.nowFunc())
	if err != nil {
		return "", err
	}
	logger.DebugCF("schedule", "Routing generation", map[string]any{"backend": name, "model": backend.Model()})
	return backend.Generate(ctx, prompt, opts)
}

func (p *ScheduleBackend) Name() string {
	_, name, err := p.resolve(p.nowFunc())
	if err != nil {
		return "schedule"
	}
	return "schedule:" + name
}

func (p *ScheduleBackend) Model() string {
	backend, _, err := p.resolve(p.nowFunc())
	if err != nil {
		return ""
	}
	return backend.Model()
}
