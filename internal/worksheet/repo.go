package worksheet

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("worksheet: not found")
	ErrForbidden     = errors.New("worksheet: not allowed")
	ErrEmailTaken    = errors.New("worksheet: email already registered")
	ErrQuotaExceeded = errors.New("worksheet: monthly generation quota exceeded")
	ErrInvalidInput  = errors.New("worksheet: invalid input")
)

type LibraryOpts struct {
	Curriculum string
	YearGroup  int
	Topic      string
	Q          string // matches title, topic or summary
	Limit      int
	Offset     int
}

type AttemptListOpts struct {
	WorksheetID string
	ProfileID   string
	Limit       int
	Offset      int
}

type Store interface {
	CreateProfile(ctx context.Context, p Profile) error
	GetProfile(ctx context.Context, id string) (Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (Profile, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error

	PutWorksheet(ctx context.Context, w Worksheet) error
	GetWorksheet(ctx context.Context, id string) (Worksheet, error)
	GetPublishedBySlug(ctx context.Context, slug string) (Worksheet, error)
	SetPublished(ctx context.Context, id string, published bool) (Worksheet, error)
	DeleteWorksheet(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Summary, error)
	ListLibrary(ctx context.Context, opts LibraryOpts) ([]Summary, error)

	// IncrementUsage adds one generation to period and returns the new
	// count. When limit > 0 and the count would exceed it, nothing changes
	// and ErrQuotaExceeded is returned.
	IncrementUsage(ctx context.Context, profileID, period string, limit int) (int, error)
	// ReleaseUsage undoes one IncrementUsage after a failed generation.
	ReleaseUsage(ctx context.Context, profileID, period string) error
	GetUsage(ctx context.Context, profileID, period string) (int, error)

	PutAttempt(ctx context.Context, a Attempt) error
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)
}
