package worksheet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/worksheets/internal/generate"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// ---- profiles ----

func (s *SQLStore) CreateProfile(ctx context.Context, p Profile) error {
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id,email,display_name,role,password_hash,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, strings.ToLower(p.Email), p.DisplayName, string(p.Role), p.PasswordHash, p.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (s *SQLStore) GetProfile(ctx context.Context, id string) (Profile, error) {
	return s.scanProfile(s.db.QueryRowContext(ctx,
		`SELECT id,email,display_name,role,password_hash,created_at FROM profiles WHERE id=$1`, id))
}

func (s *SQLStore) GetProfileByEmail(ctx context.Context, email string) (Profile, error) {
	return s.scanProfile(s.db.QueryRowContext(ctx,
		`SELECT id,email,display_name,role,password_hash,created_at FROM profiles WHERE email=$1`,
		strings.ToLower(strings.TrimSpace(email))))
}

func (s *SQLStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE profiles SET password_hash=$1 WHERE id=$2`, hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) scanProfile(row *sql.Row) (Profile, error) {
	var p Profile
	var role string
	if err := row.Scan(&p.ID, &p.Email, &p.DisplayName, &role, &p.PasswordHash, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	p.Role = Role(role)
	return p, nil
}

// ---- worksheets ----

const worksheetCols = `id,slug,owner_id,title,summary,curriculum,year_group,topic,difficulty,markup,interactive,published,created_at,updated_at`

const summaryCols = `id,slug,title,summary,curriculum,year_group,topic,difficulty,interactive,published,updated_at`

func (s *SQLStore) PutWorksheet(ctx context.Context, w Worksheet) error {
	now := time.Now().Unix()
	if w.CreatedAt == 0 {
		w.CreatedAt = now
	}
	if w.UpdatedAt == 0 {
		w.UpdatedAt = now
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO worksheets (`+worksheetCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, summary=EXCLUDED.summary,
		  markup=EXCLUDED.markup, interactive=EXCLUDED.interactive, published=EXCLUDED.published,
		  updated_at=EXCLUDED.updated_at`,
		w.ID, w.Slug, w.OwnerID, w.Title, w.Summary, string(w.Curriculum), w.YearGroup, w.Topic,
		string(w.Difficulty), w.Markup, boolInt(w.Interactive), boolInt(w.Published), w.CreatedAt, w.UpdatedAt)
	return err
}

func (s *SQLStore) GetWorksheet(ctx context.Context, id string) (Worksheet, error) {
	return scanWorksheet(s.db.QueryRowContext(ctx,
		`SELECT `+worksheetCols+` FROM worksheets WHERE id=$1`, id))
}

func (s *SQLStore) GetPublishedBySlug(ctx context.Context, slug string) (Worksheet, error) {
	return scanWorksheet(s.db.QueryRowContext(ctx,
		`SELECT `+worksheetCols+` FROM worksheets WHERE slug=$1 AND published=1`, slug))
}

func (s *SQLStore) SetPublished(ctx context.Context, id string, published bool) (Worksheet, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE worksheets SET published=$1, updated_at=$2 WHERE id=$3`,
		boolInt(published), time.Now().Unix(), id)
	if err != nil {
		return Worksheet{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Worksheet{}, ErrNotFound
	}
	return s.GetWorksheet(ctx, id)
}

func (s *SQLStore) DeleteWorksheet(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM worksheets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Summary, error) {
	limit, offset = clampPage(limit, offset)
	rows, err := s.db.QueryContext(ctx, `SELECT `+summaryCols+` FROM worksheets
		WHERE owner_id=$1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}

func (s *SQLStore) ListLibrary(ctx context.Context, opts LibraryOpts) ([]Summary, error) {
	limit, offset := clampPage(opts.Limit, opts.Offset)

	var (
		where = []string{"published=1"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if opts.Curriculum != "" {
		where = append(where, "curriculum="+arg(strings.ToLower(opts.Curriculum)))
	}
	if opts.YearGroup > 0 {
		where = append(where, "year_group="+arg(opts.YearGroup))
	}
	if opts.Topic != "" {
		where = append(where, "LOWER(topic)="+arg(strings.ToLower(opts.Topic)))
	}
	if q := strings.TrimSpace(opts.Q); q != "" {
		p := arg("%" + strings.ToLower(q) + "%")
		where = append(where, "(LOWER(title) LIKE "+p+" OR LOWER(topic) LIKE "+p+" OR LOWER(summary) LIKE "+p+")")
	}
	query := `SELECT ` + summaryCols + ` FROM worksheets WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY updated_at DESC, id LIMIT ` + arg(limit) + ` OFFSET ` + arg(offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}

// ---- usage ----

func (s *SQLStore) IncrementUsage(ctx context.Context, profileID, period string, limit int) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO usage (profile_id,period,generations) VALUES ($1,$2,0)
		 ON CONFLICT (profile_id,period) DO NOTHING`, profileID, period); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE usage SET generations=generations+1
		 WHERE profile_id=$1 AND period=$2 AND ($3 <= 0 OR generations < $3)`,
		profileID, period, limit)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrQuotaExceeded
	}
	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT generations FROM usage WHERE profile_id=$1 AND period=$2`, profileID, period).Scan(&count); err != nil {
		return 0, err
	}
	return count, tx.Commit()
}

func (s *SQLStore) ReleaseUsage(ctx context.Context, profileID, period string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE usage SET generations=generations-1 WHERE profile_id=$1 AND period=$2 AND generations > 0`,
		profileID, period)
	return err
}

func (s *SQLStore) GetUsage(ctx context.Context, profileID, period string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT generations FROM usage WHERE profile_id=$1 AND period=$2`, profileID, period).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

// ---- attempts ----

func (s *SQLStore) PutAttempt(ctx context.Context, a Attempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = time.Now().Unix()
	}
	dj, err := json.Marshal(a.Details)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attempts (id,worksheet_id,profile_id,score_percent,correct_count,total_count,details_json,created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.WorksheetID, a.ProfileID, a.ScorePercent, a.CorrectCount, a.TotalCount, string(dj), a.CreatedAt)
	return err
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	limit, offset := clampPage(opts.Limit, opts.Offset)
	var (
		where []string
		args  []any
	)
	if opts.WorksheetID != "" {
		args = append(args, opts.WorksheetID)
		where = append(where, fmt.Sprintf("worksheet_id=$%d", len(args)))
	}
	if opts.ProfileID != "" {
		args = append(args, opts.ProfileID)
		where = append(where, fmt.Sprintf("profile_id=$%d", len(args)))
	}
	q := `SELECT id,worksheet_id,profile_id,score_percent,correct_count,total_count,details_json,created_at FROM attempts`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	q += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var dj string
		if err := rows.Scan(&a.ID, &a.WorksheetID, &a.ProfileID, &a.ScorePercent, &a.CorrectCount, &a.TotalCount, &dj, &a.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(dj), &a.Details); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ---- helpers ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorksheet(row rowScanner) (Worksheet, error) {
	var w Worksheet
	var curriculum, difficulty string
	var interactive, published int
	err := row.Scan(&w.ID, &w.Slug, &w.OwnerID, &w.Title, &w.Summary, &curriculum, &w.YearGroup, &w.Topic,
		&difficulty, &w.Markup, &interactive, &published, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Worksheet{}, ErrNotFound
		}
		return Worksheet{}, err
	}
	w.Curriculum = generate.Curriculum(curriculum)
	w.Difficulty = generate.Difficulty(difficulty)
	w.Interactive = interactive != 0
	w.Published = published != 0
	return w, nil
}

func scanSummaries(rows *sql.Rows) ([]Summary, error) {
	defer rows.Close()
	out := []Summary{}
	for rows.Next() {
		var s Summary
		var curriculum, difficulty string
		var interactive, published int
		if err := rows.Scan(&s.ID, &s.Slug, &s.Title, &s.Summary, &curriculum, &s.YearGroup, &s.Topic,
			&difficulty, &interactive, &published, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Curriculum = generate.Curriculum(curriculum)
		s.Difficulty = generate.Difficulty(difficulty)
		s.Interactive = interactive != 0
		s.Published = published != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation matches the SQLite and Postgres unique-constraint errors.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505")
}
