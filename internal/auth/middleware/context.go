package auth

import (
	"context"

	"github.com/mind-engage/worksheets/internal/rbac"
	"github.com/mind-engage/worksheets/internal/worksheet"
)

type ctxKey string

const ctxKeySub ctxKey = "sub"

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeySub); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ViewerFromContext returns the authenticated caller, or the anonymous
// Viewer when the request carried no token.
func ViewerFromContext(ctx context.Context) worksheet.Viewer {
	sub := SubjectFromContext(ctx)
	if sub == "" {
		return worksheet.Viewer{}
	}
	return worksheet.Viewer{ID: sub, Role: worksheet.Role(rbac.RoleFromContext(ctx))}
}
