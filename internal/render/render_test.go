package render

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/worksheets/internal/generate"
	"github.com/mind-engage/worksheets/internal/grading"
	"github.com/mind-engage/worksheets/internal/storage"
	"github.com/mind-engage/worksheets/internal/worksheet"
)

const sheet = `<h1>Number Bonds</h1>
<p>Fill in the blanks.</p>
<fieldset disabled><p>Example: 2 + 8 = <input value="10" data-answer="10"></p></fieldset>
<ol>
  <li>3 + <input data-answer="7"> = 10</li>
  <li>Pick the even number <select data-answer="4"><option>3</option><option>4</option></select></li>
  <li>Seven in words: <input data-answer="7|seven"></li>
</ol>
<ul><li>Show your working.</li></ul>`

func TestExtractBlocks(t *testing.T) {
	blocks, err := extractBlocks(sheet)
	require.NoError(t, err)

	var questions []block
	for _, b := range blocks {
		if b.kind == blockQuestion {
			questions = append(questions, b)
		}
	}
	require.Len(t, questions, 3)
	assert.Equal(t, 1, questions[0].number)
	assert.Equal(t, "3 + "+blank+" = 10", questions[0].text)
	assert.Contains(t, questions[1].text, "(3 / 4)")
	assert.Equal(t, 3, questions[2].number)

	assert.Equal(t, block{kind: blockHeading, text: "Number Bonds"}, blocks[0])
	assert.Contains(t, texts(blocks), "Example: 2 + 8 = 10")
	assert.Contains(t, texts(blocks), "- Show your working.")
}

func texts(bs []block) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.text
	}
	return out
}

func TestAnswerText(t *testing.T) {
	assert.Equal(t, "7 or seven", answerText(grading.Item{Expected: "7| seven"}))
	assert.Equal(t, "3.14 (within 0.01)", answerText(grading.Item{Expected: "3.14", Tolerance: 0.01}))
}

func TestSubtitle(t *testing.T) {
	w := worksheet.Worksheet{Curriculum: generate.CurriculumUS, YearGroup: 2, Topic: "number bonds", Difficulty: generate.DifficultyEasy}
	assert.Equal(t, "Grade 2 | Number Bonds | Easy", subtitle(w))
}

func TestPDFRenderer_Render(t *testing.T) {
	r := NewPDFRenderer(Config{PageSize: "letter"}, nil)
	w := worksheet.Worksheet{ID: "w1", Title: "Number Bonds", Curriculum: generate.CurriculumUK, YearGroup: 3, Markup: sheet, UpdatedAt: 100}

	plain, err := r.Render(context.Background(), w, Options{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(plain, []byte("%PDF")))

	key, err := r.Render(context.Background(), w, Options{AnswerKey: true})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(key, []byte("%PDF")))
	assert.Greater(t, len(key), len(plain))
}

func TestPDFRenderer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPDFRenderer(Config{}, nil).Render(ctx, worksheet.Worksheet{Markup: sheet}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCache_Render(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	c := NewCache(NewPDFRenderer(Config{}, nil), store, nil)
	w := worksheet.Worksheet{ID: "w1", Title: "Bonds", Markup: sheet, UpdatedAt: 100}

	first, err := c.Render(ctx, w, Options{})
	require.NoError(t, err)

	rc, err := store.Get(ctx, Key(w, Options{}))
	require.NoError(t, err)
	rc.Close()

	second, err := c.Render(ctx, w, Options{})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, "pdf/w1/100-sheet.pdf", Key(w, Options{}))
	w.UpdatedAt = 200
	assert.Equal(t, "pdf/w1/200-key.pdf", Key(w, Options{AnswerKey: true}))
}
