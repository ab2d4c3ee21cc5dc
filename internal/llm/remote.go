package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// vendor is one hosted model API. It performs a single call and reports
// what came back; the shared remote client handles the rest.
type vendor interface {
	send(ctx context.Context, model string, req Request) (reply, error)
	// httpStatus extracts the status of a vendor API error, 0 if none.
	httpStatus(err error) int
}

type reply struct {
	text      string
	servedBy  string
	usage     Usage
	truncated bool
}

// remote adapts a vendor to Provider.
type remote struct {
	name  string
	model string
	v     vendor
}

func (p *remote) ModelID() string { return p.model }

func (p *remote) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}
	out, err := p.v.send(ctx, p.model, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classify(p.v.httpStatus(err), err)
	}

	content := json.RawMessage(unfence(out.text))
	if out.truncated {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	if len(content) == 0 {
		return nil, &ErrInvalidResponse{Err: errEmptyReply(p.name)}
	}
	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}

	served := out.servedBy
	if served == "" {
		served = p.model
	}
	if out.usage.TotalTokens == 0 {
		out.usage.TotalTokens = out.usage.InputTokens + out.usage.OutputTokens
	}
	return &Response{Content: content, Usage: out.usage, Model: served, StopReason: "end"}, nil
}

const defaultMaxTokens = 8192

// classify turns a vendor failure into one of the package errors so the
// retry layer can decide what to do with it.
func classify(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{Err: err}
	case status >= 400 && status < 500 && status != http.StatusRequestTimeout:
		return &ErrRejected{Status: status, Err: err}
	default:
		return &ErrProviderUnavailable{Err: err}
	}
}

// unfence drops a surrounding markdown code fence ("```json ... ```"),
// which some models add even in JSON mode.
func unfence(s string) []byte {
	b := bytes.TrimSpace([]byte(s))
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	b = b[3:]
	// first line is a language tag unless the JSON starts there
	if nl := bytes.IndexByte(b, '\n'); nl >= 0 && !bytes.ContainsAny(b[:nl], "{[") {
		b = b[nl+1:]
	}
	return bytes.TrimSpace(bytes.TrimSuffix(bytes.TrimSpace(b), []byte("```")))
}
