package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mind-engage/worksheets/internal/generate"
	"github.com/mind-engage/worksheets/internal/grading"
	"github.com/mind-engage/worksheets/internal/llm"
	"github.com/mind-engage/worksheets/internal/worksheet"
)

const maxBodyBytes = 4 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps domain errors to HTTP statuses. Anything unrecognised is a
// 500 whose detail stays in the log.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logFrom(r).Error("request failed", zap.Error(err))
	}
	writeError(w, status, msg)
}

func statusFor(err error) (int, string) {
	var (
		mpe  *grading.MarkupParseError
		rl   *llm.ErrRateLimit
		down *llm.ErrProviderUnavailable
		rej  *llm.ErrRejected
	)
	switch {
	case errors.As(err, &mpe):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, grading.ErrNoGradableItems):
		return http.StatusUnprocessableEntity, "worksheet has no gradable answers"
	case errors.Is(err, generate.ErrInvalidConfig), errors.Is(err, worksheet.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, worksheet.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, worksheet.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, worksheet.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, worksheet.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "monthly generation quota exceeded"
	case errors.As(err, &rl):
		return http.StatusServiceUnavailable, "generator is busy, try again shortly"
	case errors.As(err, &down):
		return http.StatusServiceUnavailable, "generator unavailable, try again later"
	case errors.As(err, &rej):
		return http.StatusBadGateway, "generator refused the request"
	case errors.Is(err, generate.ErrUnusableMarkup):
		return http.StatusBadGateway, "generator returned an unusable worksheet"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return fmt.Errorf("bad json: %w", err)
	}
	return nil
}

// page reads limit/offset query parameters.
func page(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// answersBody accepts either a positional list or an object keyed by item id.
type answersBody []byte

func (a *answersBody) UnmarshalJSON(b []byte) error {
	*a = append((*a)[:0], b...)
	return nil
}

// resolve turns the submitted answers into a positional list for markup.
func (a answersBody) resolve(engine *grading.Engine, markup string) ([]string, error) {
	if len(a) == 0 || string(a) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(a, &list); err == nil {
		return list, nil
	}
	var byID map[string]string
	if err := json.Unmarshal(a, &byID); err != nil {
		return nil, errors.New("answers must be an array of strings or an object of strings")
	}
	items, err := engine.Extract(markup)
	if err != nil {
		return nil, err
	}
	return grading.OrderAnswers(items, byID), nil
}

func (a answersBody) positional() bool {
	for _, c := range a {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '{':
			return false
		}
		return true
	}
	return true
}
