package worksheet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/worksheets/internal/generate"
	"github.com/mind-engage/worksheets/internal/grading"
	"github.com/mind-engage/worksheets/internal/metrics"
	syncx "github.com/mind-engage/worksheets/internal/sync"
)

// Generator produces worksheet drafts.
type Generator interface {
	Generate(ctx context.Context, cfg generate.Config) (generate.Draft, error)
}

// EventSink receives domain events.
type EventSink interface {
	Append(ctx context.Context, e syncx.Event) error
}

// Viewer is the caller of a service operation. The zero Viewer is an
// anonymous visitor.
type Viewer struct {
	ID   string
	Role Role
}

func (v Viewer) Anonymous() bool { return v.ID == "" }

func (v Viewer) Owns(w Worksheet) bool {
	return v.Role == RoleAdmin || (v.ID != "" && v.ID == w.OwnerID)
}

type Service struct {
	store   Store
	gen     Generator
	engine  *grading.Engine
	events  EventSink
	log     *zap.Logger
	quota   int
	siteID  string
	now     func() time.Time
	hashCst int // bcrypt cost
}

type Option func(*Service)

func WithEvents(e EventSink) Option       { return func(s *Service) { s.events = e } }
func WithLogger(l *zap.Logger) Option     { return func(s *Service) { s.log = l } }
func WithMonthlyQuota(n int) Option       { return func(s *Service) { s.quota = n } }
func WithClock(f func() time.Time) Option { return func(s *Service) { s.now = f } }
func WithBcryptCost(c int) Option         { return func(s *Service) { s.hashCst = c } }
func WithSiteID(id string) Option         { return func(s *Service) { s.siteID = id } }

func NewService(store Store, gen Generator, engine *grading.Engine, opts ...Option) *Service {
	s := &Service{
		store:   store,
		gen:     gen,
		engine:  engine,
		log:     zap.NewNop(),
		siteID:  "local",
		now:     time.Now,
		hashCst: 12,
	}
	for _, o := range opts {
		o(s)
	}
	if s.engine == nil {
		s.engine = grading.NewEngine()
	}
	return s
}

func (s *Service) Engine() *grading.Engine { return s.engine }

// ---- accounts ----

// Register creates a teacher or student profile with a bcrypt password.
func (s *Service) Register(ctx context.Context, email, password, displayName string, role Role) (Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return Profile{}, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(password) < 8 {
		return Profile{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if role != RoleTeacher && role != RoleStudent {
		return Profile{}, fmt.Errorf("%w: role must be teacher or student", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCst)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    s.now().Unix(),
	}
	if err := s.store.CreateProfile(ctx, p); err != nil {
		return Profile{}, err
	}
	s.emit(ctx, "ProfileRegistered", p.ID, map[string]any{"role": p.Role})
	return p, nil
}

// Authenticate checks an email/password pair. Unknown emails and wrong
// passwords both return ErrNotFound.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Profile, error) {
	p, err := s.store.GetProfileByEmail(ctx, email)
	if err != nil {
		return Profile{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

// ChangePassword replaces the viewer's password after checking the old one.
func (s *Service) ChangePassword(ctx context.Context, v Viewer, oldPassword, newPassword string) error {
	if v.Anonymous() {
		return ErrForbidden
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	p, err := s.store.GetProfile(ctx, v.ID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(oldPassword)) != nil {
		return ErrForbidden
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCst)
	if err != nil {
		return err
	}
	return s.store.UpdatePasswordHash(ctx, p.ID, string(hash))
}

// ---- generation ----

// Generate reserves one unit of the owner's monthly quota, generates a
// worksheet and stores it. The reservation is released when generation
// or saving fails.
func (s *Service) Generate(ctx context.Context, owner Viewer, cfg generate.Config) (Worksheet, error) {
	if owner.Anonymous() {
		return Worksheet{}, ErrForbidden
	}
	period := s.period()
	limit := s.quota
	if owner.Role == RoleAdmin {
		limit = 0
	}
	if _, err := s.store.IncrementUsage(ctx, owner.ID, period, limit); err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			metrics.Generations.WithLabelValues("quota").Inc()
		}
		return Worksheet{}, err
	}

	w, err := s.generate(ctx, owner, cfg)
	if err != nil {
		if rerr := s.store.ReleaseUsage(context.WithoutCancel(ctx), owner.ID, period); rerr != nil {
			s.log.Error("release usage", zap.String("profile", owner.ID), zap.Error(rerr))
		}
		metrics.Generations.WithLabelValues(generationOutcome(err)).Inc()
		return Worksheet{}, err
	}
	metrics.Generations.WithLabelValues("ok").Inc()
	return w, nil
}

func (s *Service) generate(ctx context.Context, owner Viewer, cfg generate.Config) (Worksheet, error) {
	draft, err := s.gen.Generate(ctx, cfg)
	if err != nil {
		return Worksheet{}, err
	}
	id := uuid.NewString()
	now := s.now().Unix()
	title := draft.Title
	if title == "" {
		title = fmt.Sprintf("%s %s worksheet", draft.Config.YearLabel(), draft.Config.Topic)
	}
	w := Worksheet{
		ID:          id,
		Slug:        NewSlug(title, id),
		OwnerID:     owner.ID,
		Title:       title,
		Summary:     draft.Summary,
		Curriculum:  draft.Config.Curriculum,
		YearGroup:   draft.Config.YearGroup,
		Topic:       draft.Config.Topic,
		Difficulty:  draft.Config.Difficulty,
		Markup:      draft.HTML,
		Interactive: draft.Config.Interactive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.PutWorksheet(ctx, w); err != nil {
		return Worksheet{}, fmt.Errorf("save worksheet: %w", err)
	}
	s.log.Info("worksheet generated",
		zap.String("worksheet", w.ID),
		zap.String("owner", owner.ID),
		zap.String("model", draft.Model),
		zap.Int("items", draft.Items))
	s.emit(ctx, "WorksheetGenerated", w.ID, map[string]any{
		"owner": owner.ID, "model": draft.Model, "items": draft.Items, "topic": w.Topic,
	})
	return w, nil
}

func generationOutcome(err error) string {
	switch {
	case errors.Is(err, generate.ErrInvalidConfig):
		return "invalid"
	case errors.Is(err, generate.ErrUnusableMarkup):
		return "unusable"
	default:
		return "error"
	}
}

// ---- viewing ----

// Get returns a worksheet the viewer may see. Owners and admins get the
// markup with answers; everyone else gets it stripped, and only when the
// worksheet is published.
func (s *Service) Get(ctx context.Context, id string, v Viewer) (Worksheet, error) {
	w, err := s.store.GetWorksheet(ctx, id)
	if err != nil {
		return Worksheet{}, err
	}
	if v.Owns(w) {
		return w, nil
	}
	if !w.Published {
		return Worksheet{}, ErrNotFound
	}
	return StudentView(w)
}

// Load returns the stored worksheet with answers, checking only
// visibility. For server-side rendering and scoring.
func (s *Service) Load(ctx context.Context, id string, v Viewer) (Worksheet, error) {
	w, err := s.store.GetWorksheet(ctx, id)
	if err != nil {
		return Worksheet{}, err
	}
	if !w.Published && !v.Owns(w) {
		return Worksheet{}, ErrNotFound
	}
	return w, nil
}

// StudentView returns w with answer attributes removed from its markup.
func StudentView(w Worksheet) (Worksheet, error) {
	stripped, err := grading.StripAnswers(w.Markup)
	if err != nil {
		return Worksheet{}, err
	}
	w.Markup = stripped
	return w, nil
}

func (s *Service) LibraryItem(ctx context.Context, slug string) (Worksheet, error) {
	w, err := s.store.GetPublishedBySlug(ctx, slug)
	if err != nil {
		return Worksheet{}, err
	}
	return StudentView(w)
}

func (s *Service) Library(ctx context.Context, opts LibraryOpts) ([]Summary, error) {
	return s.store.ListLibrary(ctx, opts)
}

func (s *Service) Mine(ctx context.Context, v Viewer, limit, offset int) ([]Summary, error) {
	if v.Anonymous() {
		return nil, ErrForbidden
	}
	return s.store.ListByOwner(ctx, v.ID, limit, offset)
}

func (s *Service) Usage(ctx context.Context, v Viewer) (Usage, error) {
	if v.Anonymous() {
		return Usage{}, ErrForbidden
	}
	period := s.period()
	n, err := s.store.GetUsage(ctx, v.ID, period)
	if err != nil {
		return Usage{}, err
	}
	u := Usage{Period: period, Generations: n, Limit: s.quota}
	if v.Role == RoleAdmin {
		u.Limit = 0
	}
	return u, nil
}

// ---- scoring ----

// Score grades answers against a stored worksheet. When record is set
// the attempt is logged against the viewer (anonymous attempts too).
func (s *Service) Score(ctx context.Context, id string, v Viewer, answers []string, record bool) (grading.Result, error) {
	w, err := s.Load(ctx, id, v)
	if err != nil {
		return grading.Result{}, err
	}
	res, err := s.ScoreMarkup(w.Markup, answers)
	if err != nil {
		s.log.Warn("stored worksheet not gradable", zap.String("worksheet", id), zap.Error(err))
		return grading.Result{}, err
	}
	if record {
		a := Attempt{
			ID:           uuid.NewString(),
			WorksheetID:  w.ID,
			ProfileID:    v.ID,
			ScorePercent: res.ScorePercent,
			CorrectCount: res.CorrectCount,
			TotalCount:   res.TotalCount,
			Details:      res.Details,
			CreatedAt:    s.now().Unix(),
		}
		if err := s.store.PutAttempt(ctx, a); err != nil {
			return grading.Result{}, fmt.Errorf("record attempt: %w", err)
		}
		s.emit(ctx, "WorksheetScored", w.ID, map[string]any{
			"attempt": a.ID, "profile": v.ID, "score": res.ScorePercent,
		})
	}
	return res, nil
}

// ScoreMarkup runs the engine on caller-supplied markup.
func (s *Service) ScoreMarkup(markup string, answers []string) (grading.Result, error) {
	res, err := s.engine.Score(markup, answers)
	switch {
	case err == nil:
		metrics.WorksheetsScored.WithLabelValues("ok").Inc()
	case grading.IsMarkupParseError(err):
		metrics.WorksheetsScored.WithLabelValues("malformed").Inc()
	case errors.Is(err, grading.ErrNoGradableItems):
		metrics.WorksheetsScored.WithLabelValues("empty").Inc()
	}
	return res, err
}

// Attempts lists logged attempts on a worksheet. Owners and callers with
// seeAll get every attempt, others only their own.
func (s *Service) Attempts(ctx context.Context, id string, v Viewer, seeAll bool, limit, offset int) ([]Attempt, error) {
	w, err := s.store.GetWorksheet(ctx, id)
	if err != nil {
		return nil, err
	}
	if !w.Published && !v.Owns(w) {
		return nil, ErrNotFound
	}
	opts := AttemptListOpts{WorksheetID: w.ID, Limit: limit, Offset: offset}
	if !v.Owns(w) && !seeAll {
		if v.Anonymous() {
			return nil, ErrForbidden
		}
		opts.ProfileID = v.ID
	}
	return s.store.ListAttempts(ctx, opts)
}

// ---- publishing ----

func (s *Service) Publish(ctx context.Context, id string, v Viewer) (Worksheet, error) {
	return s.setPublished(ctx, id, v, true)
}

func (s *Service) Unpublish(ctx context.Context, id string, v Viewer) (Worksheet, error) {
	return s.setPublished(ctx, id, v, false)
}

func (s *Service) setPublished(ctx context.Context, id string, v Viewer, published bool) (Worksheet, error) {
	w, err := s.store.GetWorksheet(ctx, id)
	if err != nil {
		return Worksheet{}, err
	}
	if !v.Owns(w) {
		return Worksheet{}, ErrForbidden
	}
	if published && w.Interactive {
		// a published interactive sheet must be scorable
		if _, err := s.engine.Extract(w.Markup); err != nil {
			return Worksheet{}, err
		}
	}
	w, err = s.store.SetPublished(ctx, id, published)
	if err != nil {
		return Worksheet{}, err
	}
	typ := "WorksheetUnpublished"
	if published {
		typ = "WorksheetPublished"
	}
	s.emit(ctx, typ, id, map[string]any{"by": v.ID})
	return w, nil
}

func (s *Service) Delete(ctx context.Context, id string, v Viewer) error {
	w, err := s.store.GetWorksheet(ctx, id)
	if err != nil {
		return err
	}
	if !v.Owns(w) {
		return ErrForbidden
	}
	if err := s.store.DeleteWorksheet(ctx, id); err != nil {
		return err
	}
	s.emit(ctx, "WorksheetDeleted", id, map[string]any{"by": v.ID})
	return nil
}

// ---- helpers ----

func (s *Service) period() string {
	return s.now().UTC().Format("2006-01")
}

func (s *Service) emit(ctx context.Context, typ, key string, data map[string]any) {
	if s.events == nil {
		return
	}
	b, _ := json.Marshal(data)
	if err := s.events.Append(ctx, syncx.Event{SiteID: s.siteID, Type: typ, Key: key, DataJSON: string(b)}); err != nil {
		s.log.Warn("append event", zap.String("type", typ), zap.Error(err))
	}
}

// Store exposes the backing store for middleware that needs profile lookups.
func (s *Service) Store() Store { return s.store }
