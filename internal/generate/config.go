package generate

import (
	"errors"
	"fmt"
	"strings"
)

type Curriculum string

const (
	CurriculumUK Curriculum = "uk"
	CurriculumUS Curriculum = "us"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

const (
	MinQuestions = 1
	MaxQuestions = 30
)

// ErrInvalidConfig wraps every validation failure of a Config.
var ErrInvalidConfig = errors.New("generate: invalid worksheet config")

// Config describes the worksheet a teacher asked for.
type Config struct {
	Curriculum  Curriculum `json:"curriculum"`
	YearGroup   int        `json:"year_group"` // UK Year 1-9, US Grade 1-8
	Topic       string     `json:"topic"`
	Difficulty  Difficulty `json:"difficulty"`
	Questions   int        `json:"questions"`
	Interactive bool       `json:"interactive"`
}

// Normalize fills defaults and canonicalises casing.
func (c Config) Normalize() Config {
	c.Curriculum = Curriculum(strings.ToLower(strings.TrimSpace(string(c.Curriculum))))
	if c.Curriculum == "" {
		c.Curriculum = CurriculumUK
	}
	c.Difficulty = Difficulty(strings.ToLower(strings.TrimSpace(string(c.Difficulty))))
	if c.Difficulty == "" {
		c.Difficulty = DifficultyMedium
	}
	c.Topic = strings.Join(strings.Fields(c.Topic), " ")
	if c.Questions == 0 {
		c.Questions = 10
	}
	return c
}

func (c Config) Validate() error {
	switch c.Curriculum {
	case CurriculumUK:
		if c.YearGroup < 1 || c.YearGroup > 9 {
			return fmt.Errorf("%w: UK year group must be 1-9, got %d", ErrInvalidConfig, c.YearGroup)
		}
	case CurriculumUS:
		if c.YearGroup < 1 || c.YearGroup > 8 {
			return fmt.Errorf("%w: US grade must be 1-8, got %d", ErrInvalidConfig, c.YearGroup)
		}
	default:
		return fmt.Errorf("%w: unknown curriculum %q", ErrInvalidConfig, c.Curriculum)
	}
	switch c.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfig, c.Difficulty)
	}
	if c.Topic == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidConfig)
	}
	if len(c.Topic) > 120 {
		return fmt.Errorf("%w: topic is too long", ErrInvalidConfig)
	}
	if c.Questions < MinQuestions || c.Questions > MaxQuestions {
		return fmt.Errorf("%w: questions must be %d-%d, got %d", ErrInvalidConfig, MinQuestions, MaxQuestions, c.Questions)
	}
	return nil
}

// YearLabel renders the year group the way the curriculum names it.
func (c Config) YearLabel() string {
	if c.Curriculum == CurriculumUS {
		return fmt.Sprintf("Grade %d", c.YearGroup)
	}
	return fmt.Sprintf("Year %d", c.YearGroup)
}
