package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/worksheets/internal/grading"
)

const markup = `<ol>
<li>3 + 4 = <input data-answer="7"></li>
<li>Order: <input data-answer="B, C, A"></li>
<li>Day: <input data-answer="Tuesday"></li>
</ol>`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestScoreCmd_AnswersFlag(t *testing.T) {
	path := writeFile(t, "sheet.html", markup)
	out, err := run(t, "", "score", "--markup", path, "--answers", `7.0,"b,c,a",monday`)
	require.NoError(t, err)

	var res grading.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []bool{true, true, false}, res.Details)
	assert.Equal(t, 67, res.ScorePercent)
}

func TestScoreCmd_AnswersFileAndStdin(t *testing.T) {
	answers := writeFile(t, "answers.txt", "7\n\nTUESDAY\n")
	out, err := run(t, markup, "score", "--markup", "-", "--answers-file", answers)
	require.NoError(t, err)

	var res grading.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []bool{true, false, true}, res.Details)
}

func TestScoreCmd_Items(t *testing.T) {
	out, err := run(t, markup, "score", "--markup", "-", "--items")
	require.NoError(t, err)
	var items []grading.Item
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 3)
	assert.Equal(t, "B, C, A", items[1].Expected)
}

func TestScoreCmd_Errors(t *testing.T) {
	_, err := run(t, "", "score")
	assert.ErrorContains(t, err, "--markup")

	_, err = run(t, `<p>nothing to grade</p>`, "score", "--markup", "-")
	assert.ErrorIs(t, err, grading.ErrNoGradableItems)

	_, err = run(t, `<input data-answer="7`, "score", "--markup", "-")
	assert.True(t, grading.IsMarkupParseError(err))
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "worksheets (devel)\n", out)
}

func TestMigrateCmd(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file:"+filepath.Join(t.TempDir(), "w.db"))
	out, err := run(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema ready (sqlite)")
}
