// Package planner turns a free-text study goal into candidate task names by
// asking a text-generation service for a day-by-day plan.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"studyplan/app/config"
	"studyplan/app/metrics"
)

// ErrorPrefix starts the single line Plan returns when generation fails.
const ErrorPrefix = "❌ Error"

// ErrGeneration is wrapped by callers that surface a failed generation.
var ErrGeneration = errors.New("plan generation failed")

// Generator is a text-generation backend.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Planner builds prompts, rate-limits and times out generation calls.
type Planner struct {
	gen     Generator
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Planner around gen.
func New(gen Generator, cfg config.GeminiConfig, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Planner{
		gen:     gen,
		limiter: rate.NewLimiter(limit, burst),
		timeout: cfg.Timeout,
		logger:  logger.Named("planner"),
	}
}

// BuildPrompt returns the fixed instruction sent for goal.
func BuildPrompt(goal string) string {
	return fmt.Sprintf(
		"Break down this study goal into a daily plan: '%s'. "+
			"Give a numbered list (Day 1, Day 2...) with specific topics to study each day.",
		goal,
	)
}

// Plan returns the generated plan as trimmed lines in response order. On any
// failure it returns a single line starting with ErrorPrefix; see IsError.
func (p *Planner) Plan(ctx context.Context, goal string) []string {
	if err := p.limiter.Wait(ctx); err != nil {
		return p.fail(fmt.Errorf("rate limiter: %w", err))
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := p.gen.GenerateText(ctx, BuildPrompt(goal))
	metrics.PlanGenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return p.fail(err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return p.fail(errors.New("empty response from generation service"))
	}

	metrics.PlanGenerations.WithLabelValues("success").Inc()
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	p.logger.Debug("plan generated", zap.Int("lines", len(lines)))
	return lines
}

func (p *Planner) fail(err error) []string {
	metrics.PlanGenerations.WithLabelValues("error").Inc()
	p.logger.Warn("plan generation failed", zap.Error(err))
	return []string{fmt.Sprintf("%s: %s", ErrorPrefix, err.Error())}
}

// IsError reports whether lines is the error marker returned by Plan.
func IsError(lines []string) bool {
	return len(lines) > 0 && strings.HasPrefix(lines[0], ErrorPrefix)
}

// AcceptLines keeps the lines worth storing as tasks: non-empty lines that
// are neither markdown headings ("###") nor checked-off boxes ("- [").
func AcceptLines(lines []string) []string {
	var out []string
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "###") || strings.HasPrefix(line, "- [") {
			continue
		}
		out = append(out, line)
	}
	return out
}
