package worksheet

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/worksheets/internal/generate"
	"github.com/mind-engage/worksheets/internal/grading"
	"github.com/mind-engage/worksheets/internal/llm"
	syncx "github.com/mind-engage/worksheets/internal/sync"
)

func TestService_RegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	assert.Equal(t, "teacher@school.test", f.teacher.Email)

	p, err := f.svc.Authenticate(ctx, "TEACHER@school.test", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, f.teacher.ID, p.ID)

	_, err = f.svc.Authenticate(ctx, "teacher@school.test", "wrong")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Register(ctx, "teacher@school.test", "another pass", "", RoleTeacher)
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = f.svc.Register(ctx, "root@school.test", "long enough", "", RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.Register(ctx, "short@school.test", "short", "", RoleStudent)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestService_ChangePassword(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	v := viewerOf(f.student)

	assert.ErrorIs(t, f.svc.ChangePassword(ctx, v, "wrong old", "new password 1"), ErrForbidden)
	assert.ErrorIs(t, f.svc.ChangePassword(ctx, v, "battery staple", "short"), ErrInvalidInput)
	assert.ErrorIs(t, f.svc.ChangePassword(ctx, Viewer{}, "battery staple", "new password 1"), ErrForbidden)

	require.NoError(t, f.svc.ChangePassword(ctx, v, "battery staple", "new password 1"))
	_, err := f.svc.Authenticate(ctx, "pupil@school.test", "battery staple")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Authenticate(ctx, "pupil@school.test", "new password 1")
	assert.NoError(t, err)

	assert.ErrorIs(t, f.store.UpdatePasswordHash(ctx, "missing", "x"), ErrNotFound)
}

func TestService_GenerateStoresAndCounts(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	w, err := f.svc.Generate(ctx, viewerOf(f.teacher), sampleConfig())
	require.NoError(t, err)
	assert.Equal(t, f.teacher.ID, w.OwnerID)
	assert.Equal(t, "Number Bonds and Times Tables", w.Title)
	assert.Contains(t, w.Slug, "number-bonds-and-times-tables-")
	assert.Contains(t, w.Markup, `data-answer="15"`)

	u, err := f.svc.Usage(ctx, viewerOf(f.teacher))
	require.NoError(t, err)
	assert.Equal(t, Usage{Period: "2026-03", Generations: 1, Limit: 5}, u)
	assert.Equal(t, 4, u.Remaining())

	mine, err := f.svc.Mine(ctx, viewerOf(f.teacher), 10, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, w.ID, mine[0].ID)

	events, err := syncx.NewEventRepo(f.db).Since(ctx, 0, 50)
	require.NoError(t, err)
	var types []string
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, "WorksheetGenerated")
}

func TestService_GenerateQuota(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	v := viewerOf(f.teacher)

	for i := 0; i < 2; i++ {
		_, err := f.svc.Generate(ctx, v, sampleConfig())
		require.NoError(t, err)
	}
	_, err := f.svc.Generate(ctx, v, sampleConfig())
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, 2, f.mock.CallCount())

	// admins are not limited
	admin := Viewer{ID: f.teacher.ID, Role: RoleAdmin}
	_, err = f.svc.Generate(ctx, admin, sampleConfig())
	assert.NoError(t, err)
}

func TestService_GenerateFailureReleasesQuota(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	v := viewerOf(f.teacher)

	bad := json.RawMessage(`{"title":"T","summary":"","html":"<p>no inputs</p>"}`)
	f.mock.AddResponse(llm.MockResponse{Content: bad})
	f.mock.AddResponse(llm.MockResponse{Content: bad})

	_, err := f.svc.Generate(ctx, v, sampleConfig())
	require.ErrorIs(t, err, generate.ErrUnusableMarkup)

	u, err := f.svc.Usage(ctx, v)
	require.NoError(t, err)
	assert.Zero(t, u.Generations)

	_, err = f.svc.Generate(ctx, v, sampleConfig())
	assert.NoError(t, err)
}

func TestService_GenerateAnonymous(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.svc.Generate(context.Background(), Viewer{}, sampleConfig())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestService_VisibilityAndStudentView(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	w, err := f.svc.Generate(ctx, viewerOf(f.teacher), sampleConfig())
	require.NoError(t, err)

	// draft is private
	_, err = f.svc.Get(ctx, w.ID, viewerOf(f.student))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Score(ctx, w.ID, Viewer{}, nil, false)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.Publish(ctx, w.ID, viewerOf(f.student))
	assert.ErrorIs(t, err, ErrForbidden)
	pub, err := f.svc.Publish(ctx, w.ID, viewerOf(f.teacher))
	require.NoError(t, err)
	assert.True(t, pub.Published)

	sv, err := f.svc.Get(ctx, w.ID, viewerOf(f.student))
	require.NoError(t, err)
	assert.NotContains(t, sv.Markup, "data-answer")

	own, err := f.svc.Get(ctx, w.ID, viewerOf(f.teacher))
	require.NoError(t, err)
	assert.Contains(t, own.Markup, "data-answer")

	lib, err := f.svc.LibraryItem(ctx, w.Slug)
	require.NoError(t, err)
	assert.NotContains(t, lib.Markup, "data-answer")

	_, err = f.svc.Unpublish(ctx, w.ID, viewerOf(f.teacher))
	require.NoError(t, err)
	_, err = f.svc.LibraryItem(ctx, w.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ScoreAndAttempts(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	w, err := f.svc.Generate(ctx, viewerOf(f.teacher), sampleConfig())
	require.NoError(t, err)
	_, err = f.svc.Publish(ctx, w.ID, viewerOf(f.teacher))
	require.NoError(t, err)

	answers := []string{"15", "24", "9", "63", "1/2", "3,7,12", "81", "Odd", "50", "six"}
	res, err := f.svc.Score(ctx, w.ID, viewerOf(f.student), answers, true)
	require.NoError(t, err)
	assert.Equal(t, 100, res.ScorePercent)
	assert.Equal(t, 10, res.TotalCount)

	answers[4] = "0.5" // fractions never equal decimals
	res, err = f.svc.Score(ctx, w.ID, Viewer{}, answers, true)
	require.NoError(t, err)
	assert.Equal(t, 9, res.CorrectCount)
	assert.Equal(t, 90, res.ScorePercent)

	own, err := f.svc.Attempts(ctx, w.ID, viewerOf(f.student), false, 10, 0)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, 100, own[0].ScorePercent)

	all, err := f.svc.Attempts(ctx, w.ID, viewerOf(f.teacher), false, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.Attempts(ctx, w.ID, Viewer{}, false, 10, 0)
	assert.ErrorIs(t, err, ErrForbidden)

	// seeAll widens a non-owner's view to every attempt
	wide, err := f.svc.Attempts(ctx, w.ID, viewerOf(f.student), true, 10, 0)
	require.NoError(t, err)
	assert.Len(t, wide, 2)
}

func TestService_AttemptsHiddenWhenUnpublished(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	w, err := f.svc.Generate(ctx, viewerOf(f.teacher), sampleConfig())
	require.NoError(t, err)

	_, err = f.svc.Load(ctx, w.ID, viewerOf(f.student))
	require.ErrorIs(t, err, ErrNotFound)

	// attempts must not reveal a draft either
	_, err = f.svc.Attempts(ctx, w.ID, viewerOf(f.student), false, 10, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Attempts(ctx, w.ID, viewerOf(f.student), true, 10, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Attempts(ctx, w.ID, Viewer{}, false, 10, 0)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := f.svc.Attempts(ctx, w.ID, viewerOf(f.teacher), false, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_ScoreMarkupErrors(t *testing.T) {
	f := newFixture(t, 5)

	_, err := f.svc.ScoreMarkup(`<p>nothing to mark</p>`, []string{"x"})
	assert.ErrorIs(t, err, grading.ErrNoGradableItems)

	_, err = f.svc.ScoreMarkup(`<input data-answer="1`, []string{"1"})
	assert.True(t, grading.IsMarkupParseError(err))
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	w, err := f.svc.Generate(ctx, viewerOf(f.teacher), sampleConfig())
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, w.ID, viewerOf(f.student)), ErrForbidden)
	require.NoError(t, f.svc.Delete(ctx, w.ID, viewerOf(f.teacher)))
	assert.ErrorIs(t, f.svc.Delete(ctx, w.ID, viewerOf(f.teacher)), ErrNotFound)
}
