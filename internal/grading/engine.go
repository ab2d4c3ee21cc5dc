package grading

// Result is the outcome of one scoring pass.
type Result struct {
	ScorePercent int    `json:"scorePercent"`
	CorrectCount int    `json:"correctCount"`
	TotalCount   int    `json:"totalCount"`
	Details      []bool `json:"details"` // one per gradable item, markup order
}

// Matcher decides whether one submitted value is correct for an item.
type Matcher interface {
	Match(item Item, submitted string) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(item Item, submitted string) bool

func (f MatcherFunc) Match(item Item, submitted string) bool { return f(item, submitted) }

// DefaultMatcher applies the normalization rules of MatchWithTolerance.
var DefaultMatcher Matcher = MatcherFunc(func(item Item, submitted string) bool {
	return MatchWithTolerance(item.Expected, submitted, item.Tolerance)
})

// Engine scores worksheet markup against submitted values. It holds no
// per-call state and is safe for concurrent use.
type Engine struct {
	source  AnswerSource
	matcher Matcher
}

// Engine options

type Option func(*config)

type config struct {
	source   AnswerSource
	matcher  Matcher
	attr     string
	maxBytes int
}

func WithSource(s AnswerSource) Option  { return func(c *config) { c.source = s } }
func WithMatcher(m Matcher) Option      { return func(c *config) { c.matcher = m } }
func WithAnswerAttr(attr string) Option { return func(c *config) { c.attr = attr } }
func WithMaxMarkupBytes(n int) Option   { return func(c *config) { c.maxBytes = n } }

// NewEngine builds an Engine reading HTML data-answer attributes unless
// another source is supplied.
func NewEngine(opts ...Option) *Engine {
	cfg := &config{maxBytes: DefaultMaxMarkupBytes}
	for _, o := range opts {
		o(cfg)
	}
	src := cfg.source
	if src == nil {
		h := NewHTMLSource()
		if cfg.attr != "" {
			h.AnswerAttr = cfg.attr
		}
		h.MaxBytes = cfg.maxBytes
		src = h
	}
	m := cfg.matcher
	if m == nil {
		m = DefaultMatcher
	}
	return &Engine{source: src, matcher: m}
}

// Extract returns the gradable items of markup in document order.
func (e *Engine) Extract(markup string) ([]Item, error) {
	return e.source.Items(markup)
}

// Score grades submitted[i] against the i-th gradable item. A missing
// submission counts as empty; submissions past the last item are ignored.
func (e *Engine) Score(markup string, submitted []string) (Result, error) {
	items, err := e.source.Items(markup)
	if err != nil {
		return Result{}, err
	}
	return e.ScoreItems(items, submitted)
}

// ScoreItems grades already extracted items.
func (e *Engine) ScoreItems(items []Item, submitted []string) (Result, error) {
	details := make([]bool, len(items))
	for i, it := range items {
		var v string
		if i < len(submitted) {
			v = submitted[i]
		}
		details[i] = e.matcher.Match(it, v)
	}
	return Aggregate(details)
}

// Aggregate folds per-item correctness into a Result. The percentage is
// rounded half up.
func Aggregate(details []bool) (Result, error) {
	total := len(details)
	if total == 0 {
		return Result{}, ErrNoGradableItems
	}
	correct := 0
	for _, ok := range details {
		if ok {
			correct++
		}
	}
	return Result{
		ScorePercent: (correct*200 + total) / (2 * total),
		CorrectCount: correct,
		TotalCount:   total,
		Details:      append([]bool(nil), details...),
	}, nil
}

// Perfect reports whether every item was answered correctly.
func (r Result) Perfect() bool { return r.TotalCount > 0 && r.CorrectCount == r.TotalCount }

// OrderAnswers lays out answers keyed by item ID in item order, for
// callers that submit {"input-3": "7"} instead of a positional list.
func OrderAnswers(items []Item, byID map[string]string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = byID[it.ID]
	}
	return out
}
