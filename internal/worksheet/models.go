package worksheet

import "github.com/mind-engage/worksheets/internal/generate"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

type Profile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"created_at"`
}

// Worksheet is a stored worksheet. Markup carries the answer attributes;
// strip them before serving it to anyone but the owner.
type Worksheet struct {
	ID          string              `json:"id"`
	Slug        string              `json:"slug"`
	OwnerID     string              `json:"owner_id"`
	Title       string              `json:"title"`
	Summary     string              `json:"summary"`
	Curriculum  generate.Curriculum `json:"curriculum"`
	YearGroup   int                 `json:"year_group"`
	Topic       string              `json:"topic"`
	Difficulty  generate.Difficulty `json:"difficulty"`
	Markup      string              `json:"markup"`
	Interactive bool                `json:"interactive"`
	Published   bool                `json:"published"`
	CreatedAt   int64               `json:"created_at"`
	UpdatedAt   int64               `json:"updated_at"`
}

// Summary is the listing view of a worksheet, without markup.
type Summary struct {
	ID          string              `json:"id"`
	Slug        string              `json:"slug"`
	Title       string              `json:"title"`
	Summary     string              `json:"summary"`
	Curriculum  generate.Curriculum `json:"curriculum"`
	YearGroup   int                 `json:"year_group"`
	Topic       string              `json:"topic"`
	Difficulty  generate.Difficulty `json:"difficulty"`
	Interactive bool                `json:"interactive"`
	Published   bool                `json:"published"`
	UpdatedAt   int64               `json:"updated_at"`
}

func (w Worksheet) Summarize() Summary {
	return Summary{
		ID:          w.ID,
		Slug:        w.Slug,
		Title:       w.Title,
		Summary:     w.Summary,
		Curriculum:  w.Curriculum,
		YearGroup:   w.YearGroup,
		Topic:       w.Topic,
		Difficulty:  w.Difficulty,
		Interactive: w.Interactive,
		Published:   w.Published,
		UpdatedAt:   w.UpdatedAt,
	}
}

// Attempt is one logged scoring of a worksheet.
type Attempt struct {
	ID           string `json:"id"`
	WorksheetID  string `json:"worksheet_id"`
	ProfileID    string `json:"profile_id,omitempty"`
	ScorePercent int    `json:"score_percent"`
	CorrectCount int    `json:"correct_count"`
	TotalCount   int    `json:"total_count"`
	Details      []bool `json:"details"`
	CreatedAt    int64  `json:"created_at"`
}

// Usage is a profile's generation count for one calendar month.
type Usage struct {
	Period      string `json:"period"` // YYYY-MM, UTC
	Generations int    `json:"generations"`
	Limit       int    `json:"limit"` // 0 means unlimited
}

func (u Usage) Remaining() int {
	if u.Limit == 0 {
		return -1
	}
	if r := u.Limit - u.Generations; r > 0 {
		return r
	}
	return 0
}
