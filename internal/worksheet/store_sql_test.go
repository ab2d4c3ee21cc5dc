package worksheet

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/worksheets/internal/generate"
)

func seedWorksheet(t *testing.T, s *SQLStore, owner string, i int, published bool, curriculum generate.Curriculum, year int, topic string) Worksheet {
	t.Helper()
	id := fmt.Sprintf("w-%02d", i)
	w := Worksheet{
		ID:          id,
		Slug:        fmt.Sprintf("sheet-%02d", i),
		OwnerID:     owner,
		Title:       fmt.Sprintf("%s practice %d", topic, i),
		Summary:     "practice",
		Curriculum:  curriculum,
		YearGroup:   year,
		Topic:       topic,
		Difficulty:  generate.DifficultyMedium,
		Markup:      `<input data-answer="1">`,
		Interactive: true,
		Published:   published,
		CreatedAt:   int64(1000 + i),
		UpdatedAt:   int64(1000 + i),
	}
	require.NoError(t, s.PutWorksheet(context.Background(), w))
	return w
}

func TestSQLStore_Library(t *testing.T) {
	s := NewSQLStore(openTestDB(t))
	ctx := context.Background()
	require.NoError(t, s.CreateProfile(ctx, Profile{ID: "p1", Email: "a@b.c", Role: RoleTeacher, PasswordHash: "x"}))

	seedWorksheet(t, s, "p1", 1, true, generate.CurriculumUK, 3, "Fractions")
	seedWorksheet(t, s, "p1", 2, true, generate.CurriculumUS, 3, "Fractions")
	seedWorksheet(t, s, "p1", 3, true, generate.CurriculumUK, 5, "Decimals")
	seedWorksheet(t, s, "p1", 4, false, generate.CurriculumUK, 3, "Fractions")

	all, err := s.ListLibrary(ctx, LibraryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "w-03", all[0].ID) // newest first

	uk3, err := s.ListLibrary(ctx, LibraryOpts{Curriculum: "UK", YearGroup: 3})
	require.NoError(t, err)
	require.Len(t, uk3, 1)
	assert.Equal(t, "w-01", uk3[0].ID)

	q, err := s.ListLibrary(ctx, LibraryOpts{Q: "decim"})
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.Equal(t, "Decimals", q[0].Topic)

	page, err := s.ListLibrary(ctx, LibraryOpts{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	topic, err := s.ListLibrary(ctx, LibraryOpts{Topic: "fractions"})
	require.NoError(t, err)
	assert.Len(t, topic, 2)

	_, err = s.GetPublishedBySlug(ctx, "sheet-04")
	assert.ErrorIs(t, err, ErrNotFound)
	w, err := s.GetPublishedBySlug(ctx, "sheet-01")
	require.NoError(t, err)
	assert.True(t, w.Interactive)
}

func TestSQLStore_UsageQuotaConcurrent(t *testing.T) {
	s := NewSQLStore(openTestDB(t))
	ctx := context.Background()
	require.NoError(t, s.CreateProfile(ctx, Profile{ID: "p1", Email: "a@b.c", Role: RoleTeacher, PasswordHash: "x"}))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, over int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.IncrementUsage(ctx, "p1", "2026-03", 5)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else {
				assert.ErrorIs(t, err, ErrQuotaExceeded)
				over++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, ok)
	assert.Equal(t, 3, over)

	n, err := s.GetUsage(ctx, "p1", "2026-03")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	require.NoError(t, s.ReleaseUsage(ctx, "p1", "2026-03"))
	n, _ = s.GetUsage(ctx, "p1", "2026-03")
	assert.Equal(t, 4, n)

	n, err = s.GetUsage(ctx, "p1", "2026-04")
	require.NoError(t, err)
	assert.Zero(t, n)

	// unlimited
	for i := 0; i < 3; i++ {
		_, err := s.IncrementUsage(ctx, "p1", "2026-05", 0)
		require.NoError(t, err)
	}
}

func TestSQLStore_SetPublishedMissing(t *testing.T) {
	s := NewSQLStore(openTestDB(t))
	_, err := s.SetPublished(context.Background(), "nope", true)
	assert.ErrorIs(t, err, ErrNotFound)
}
