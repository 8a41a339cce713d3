package validator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"itinera/internal/domain"
)

// Engine runs every registered rule over each extractor candidate.
type Engine struct {
	registry *Registry
	logger   *slog.Logger
}

// NewEngine creates a validation engine over an existing registry.
func NewEngine(registry *Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{registry: registry, logger: logger}
}

// NewDefaultEngine creates an engine with the builtin rules registered.
func NewDefaultEngine(opts Options, logger *slog.Logger) (*Engine, error) {
	rules, err := BuiltinRules(opts)
	if err != nil {
		return nil, err
	}
	registry := NewRegistry()
	for _, r := range rules {
		registry.Register(r)
	}
	return NewEngine(registry, logger), nil
}

// ValidateRaw decodes raw extractor output and validates every record in it.
// It fails only when no JSON payload can be located.
func (e *Engine) ValidateRaw(ctx context.Context, raw string) (*Report, error) {
	candidates, err := DecodeCandidates(raw)
	if err != nil {
		return nil, err
	}
	return e.Validate(ctx, candidates), nil
}

// Validate applies the rules to each candidate independently, then removes
// in-batch duplicates. A rejected record never affects its siblings.
func (e *Engine) Validate(ctx context.Context, candidates []json.RawMessage) *Report {
	report := &Report{Accepted: []domain.ParsedBooking{}}
	rules := e.registry.All()

	var accepted []domain.ParsedBooking
	for i, raw := range candidates {
		rec := &Record{Index: i, Raw: raw}
		if rej := e.apply(ctx, rules, rec); rej != nil {
			report.Rejected = append(report.Rejected, *rej)
			e.logger.Debug("validator.Engine: record rejected",
				"index", i, "rule", rej.RuleKey, "reason", rej.Message)
			continue
		}
		accepted = append(accepted, rec.Booking)
	}

	report.Accepted, report.Duplicates = Dedupe(accepted)
	e.logger.Info("validator.Engine: batch validated",
		"candidates", len(candidates),
		"accepted", len(report.Accepted),
		"rejected", len(report.Rejected),
		"duplicates", report.Duplicates)
	return report
}

func (e *Engine) apply(ctx context.Context, rules []Rule, rec *Record) *Rejection {
	for _, rule := range rules {
		err := rule.Apply(ctx, rec)
		if err == nil {
			continue
		}
		var rej *RejectError
		if !errors.As(err, &rej) {
			e.logger.Warn("validator.Engine: rule failed", "error", ruleError(rule, err))
		}
		return &Rejection{Index: rec.Index, RuleKey: rule.RuleKey(), Message: err.Error()}
	}
	return nil
}

// Dedupe keeps one booking per (type, confirmation number), choosing the
// highest confidence and the earliest on ties. The survivor takes the slot of
// the first occurrence. Bookings without a confirmation number are all kept.
func Dedupe(bookings []domain.ParsedBooking) ([]domain.ParsedBooking, int) {
	out := make([]domain.ParsedBooking, 0, len(bookings))
	slot := make(map[domain.BookingKey]int, len(bookings))
	dropped := 0

	for _, b := range bookings {
		if !b.HasKey() {
			out = append(out, b)
			continue
		}
		idx, seen := slot[b.Key()]
		if !seen {
			slot[b.Key()] = len(out)
			out = append(out, b)
			continue
		}
		dropped++
		if b.Confidence > out[idx].Confidence {
			out[idx] = b
		}
	}
	return out, dropped
}
