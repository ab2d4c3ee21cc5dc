package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr int

func (s statusErr) Error() string { return http.StatusText(int(s)) }

type fakeVendor struct {
	out    reply
	err    error
	gotReq Request
}

func (f *fakeVendor) send(_ context.Context, _ string, req Request) (reply, error) {
	f.gotReq = req
	return f.out, f.err
}

func (f *fakeVendor) httpStatus(err error) int {
	var s statusErr
	if errors.As(err, &s) {
		return int(s)
	}
	return 0
}

var titleSchema = &Schema{
	Name: "title-only",
	Definition: map[string]any{
		"type":       "object",
		"properties": map[string]any{"title": map[string]any{"type": "string", "minLength": 1}},
		"required":   []string{"title"},
	},
}

func TestRemote_Generate(t *testing.T) {
	v := &fakeVendor{out: reply{
		text:  "```json\n{\"title\":\"Fractions\"}\n```",
		usage: Usage{InputTokens: 10, OutputTokens: 5},
	}}
	p := &remote{name: "fake", model: "fake-1", v: v}

	resp, err := p.Generate(context.Background(), Request{Schema: titleSchema})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Fractions"}`, string(resp.Content))
	assert.Equal(t, "fake-1", resp.Model)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, defaultMaxTokens, v.gotReq.MaxTokens)
}

func TestRemote_GenerateFailures(t *testing.T) {
	tests := []struct {
		name  string
		v     *fakeVendor
		check func(t *testing.T, err error)
	}{
		{"rate limited", &fakeVendor{err: statusErr(429)}, func(t *testing.T, err error) {
			var rl *ErrRateLimit
			assert.ErrorAs(t, err, &rl)
		}},
		{"bad key", &fakeVendor{err: statusErr(401)}, func(t *testing.T, err error) {
			var rej *ErrRejected
			require.ErrorAs(t, err, &rej)
			assert.Equal(t, 401, rej.Status)
		}},
		{"server error", &fakeVendor{err: statusErr(503)}, func(t *testing.T, err error) {
			var down *ErrProviderUnavailable
			assert.ErrorAs(t, err, &down)
		}},
		{"network", &fakeVendor{err: errors.New("connection reset")}, func(t *testing.T, err error) {
			var down *ErrProviderUnavailable
			assert.ErrorAs(t, err, &down)
		}},
		{"truncated", &fakeVendor{out: reply{text: `{"title":"Fra`, truncated: true}}, func(t *testing.T, err error) {
			var mt *ErrMaxTokensExceeded
			require.ErrorAs(t, err, &mt)
			assert.Equal(t, `{"title":"Fra`, string(mt.Content))
		}},
		{"empty", &fakeVendor{out: reply{text: "  "}}, func(t *testing.T, err error) {
			var inv *ErrInvalidResponse
			assert.ErrorAs(t, err, &inv)
		}},
		{"off schema", &fakeVendor{out: reply{text: `{"title":""}`}}, func(t *testing.T, err error) {
			var inv *ErrInvalidResponse
			assert.ErrorAs(t, err, &inv)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &remote{name: "fake", model: "fake-1", v: tc.v}
			_, err := p.Generate(context.Background(), Request{Schema: titleSchema})
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestRemote_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &remote{name: "fake", model: "fake-1", v: &fakeVendor{err: errors.New("request aborted")}}
	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnfence(t *testing.T) {
	tests := []struct{ in, want string }{
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}\n", `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}```", `{"a":1}`},
		{"```{\"a\":1}```", `{"a":1}`},
		{"```{\"a\":\n1}\n```", "{\"a\":\n1}"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, string(unfence(tc.in)), "%q", tc.in)
	}
}

func TestGeminiSchema(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"difficulty": map[string]any{"type": "string", "enum": []string{"easy", "hard"}},
			"questions": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items":    map[string]any{"type": "integer"},
			},
		},
		"required": []any{"difficulty"},
	})
	assert.Equal(t, []string{"difficulty"}, s.Required)
	assert.Equal(t, []string{"easy", "hard"}, s.Properties["difficulty"].Enum)
	require.NotNil(t, s.Properties["questions"].MinItems)
	assert.EqualValues(t, 1, *s.Properties["questions"].MinItems)
	assert.NotNil(t, s.Properties["questions"].Items)
}
