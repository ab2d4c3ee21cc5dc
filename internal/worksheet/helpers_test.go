package worksheet

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/worksheets/internal/db"
	"github.com/mind-engage/worksheets/internal/generate"
	"github.com/mind-engage/worksheets/internal/llm"
	syncx "github.com/mind-engage/worksheets/internal/sync"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.Open(context.Background(), db.DriverSQLite, "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type fixture struct {
	db      *sql.DB
	store   *SQLStore
	mock    *llm.MockProvider
	svc     *Service
	teacher Profile
	student Profile
}

var fixedNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, quota int) *fixture {
	t.Helper()
	conn := openTestDB(t)
	store := NewSQLStore(conn)
	mock := llm.NewMockProvider()
	mock.SetDefault(llm.MockResponse{Content: generate.SampleDraft()})
	svc := NewService(store, generate.New(mock, nil), nil,
		WithMonthlyQuota(quota),
		WithEvents(syncx.NewEventRepo(conn)),
		WithClock(func() time.Time { return fixedNow }),
		WithBcryptCost(bcrypt.MinCost),
	)
	f := &fixture{db: conn, store: store, mock: mock, svc: svc}

	ctx := context.Background()
	var err error
	f.teacher, err = svc.Register(ctx, "Teacher@School.test", "correct horse", "Ms T", RoleTeacher)
	require.NoError(t, err)
	f.student, err = svc.Register(ctx, "pupil@school.test", "battery staple", "Pupil", RoleStudent)
	require.NoError(t, err)
	return f
}

func viewerOf(p Profile) Viewer { return Viewer{ID: p.ID, Role: p.Role} }

func sampleConfig() generate.Config {
	return generate.Config{
		Curriculum:  generate.CurriculumUK,
		YearGroup:   3,
		Topic:       "number bonds",
		Difficulty:  generate.DifficultyEasy,
		Questions:   10,
		Interactive: true,
	}
}
