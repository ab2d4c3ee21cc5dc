package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/worksheets/internal/grading"
	"github.com/mind-engage/worksheets/internal/llm"
)

// ErrUnusableMarkup is returned when the model's HTML cannot be served or
// graded, even after one corrective retry.
var ErrUnusableMarkup = errors.New("generate: model returned unusable worksheet markup")

// Draft is a generated worksheet that passed the markup checks.
type Draft struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	HTML    string `json:"html"`
	Items   int    `json:"items"` // gradable inputs found in HTML
	Model   string `json:"model"`
	Config  Config `json:"config"`
}

type draftOutput struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	HTML    string `json:"html"`
}

// Generator turns a Config into a checked Draft using an LLM.
type Generator struct {
	provider    llm.Provider
	engine      *grading.Engine
	builder     Builder
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

type Option func(*Generator)

func WithBuilder(b Builder) Option       { return func(g *Generator) { g.builder = b } }
func WithMaxTokens(n int) Option         { return func(g *Generator) { g.maxTokens = n } }
func WithTemperature(t float64) Option   { return func(g *Generator) { g.temperature = t } }
func WithTimeout(d time.Duration) Option { return func(g *Generator) { g.timeout = d } }

func New(provider llm.Provider, engine *grading.Engine, opts ...Option) *Generator {
	g := &Generator{
		provider:    provider,
		engine:      engine,
		maxTokens:   8192,
		temperature: 0.4,
	}
	for _, o := range opts {
		o(g)
	}
	if g.engine == nil {
		g.engine = grading.NewEngine()
	}
	return g
}

// Generate validates cfg, asks the model for a worksheet and checks the
// returned markup with the grading engine. Unusable markup is sent back
// once with a corrective message.
func (g *Generator) Generate(ctx context.Context, cfg Config) (Draft, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Draft{}, err
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req := llm.Request{
		System:      g.builder.System(),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: g.builder.User(cfg)}},
		Schema:      DraftSchema,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	purpose := "worksheet"
	for attempt := 0; attempt < 2; attempt++ {
		resp, err := g.provider.Generate(llm.WithPurpose(ctx, purpose), req)
		if err != nil {
			return Draft{}, fmt.Errorf("LLM generation failed: %w", err)
		}

		var out draftOutput
		if err := json.Unmarshal(resp.Content, &out); err != nil {
			return Draft{}, fmt.Errorf("parse LLM response: %w", err)
		}
		out.HTML = strings.TrimSpace(out.HTML)

		items, problem := g.check(out.HTML, cfg)
		if problem == "" {
			return Draft{
				Title:   strings.TrimSpace(out.Title),
				Summary: strings.TrimSpace(out.Summary),
				HTML:    out.HTML,
				Items:   items,
				Model:   resp.Model,
				Config:  cfg,
			}, nil
		}
		if attempt == 1 {
			return Draft{}, fmt.Errorf("%w: %s", ErrUnusableMarkup, problem)
		}

		req.Messages = append(req.Messages,
			llm.Message{Role: llm.RoleAssistant, Content: string(resp.Content)},
			llm.Message{Role: llm.RoleUser, Content: g.builder.Repair(problem)},
		)
		purpose = "worksheet-repair"
	}
	return Draft{}, ErrUnusableMarkup
}

// check returns the gradable item count, or a description of why the
// markup is unusable.
func (g *Generator) check(markup string, cfg Config) (int, string) {
	if markup == "" {
		return 0, "the html field was empty"
	}
	if tag := forbiddenContent(markup); tag != "" {
		return 0, fmt.Sprintf("it contains a forbidden %s", tag)
	}
	items, err := g.engine.Extract(markup)
	if err != nil {
		return 0, err.Error()
	}
	if cfg.Interactive && len(items) == 0 {
		return 0, "no input carried an answer attribute"
	}
	return len(items), ""
}
