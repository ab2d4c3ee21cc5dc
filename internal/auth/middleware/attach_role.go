package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mind-engage/worksheets/internal/rbac"
	"github.com/mind-engage/worksheets/internal/worksheet"
)

type ProfileGetter interface {
	GetProfile(ctx context.Context, id string) (worksheet.Profile, error)
}

// AttachRoleFromStore replaces the token's role claim with the stored
// profile role. A token whose profile no longer exists is rejected unless
// allowClaimFallback is set (offline mode). Anonymous requests pass.
func AttachRoleFromStore(store ProfileGetter, allowClaimFallback bool, log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)
			if sub == "" {
				next.ServeHTTP(w, r)
				return
			}
			claimRole := rbac.RoleFromContext(ctx)

			p, err := store.GetProfile(ctx, sub)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, string(p.Role))))
			case errors.Is(err, worksheet.ErrNotFound):
				if allowClaimFallback && claimRole != "" {
					next.ServeHTTP(w, r)
					return
				}
				writeError(w, http.StatusUnauthorized, "unknown profile")
			default:
				log.Error("load profile role", zap.String("sub", sub), zap.Error(err))
				if allowClaimFallback && claimRole != "" {
					next.ServeHTTP(w, r)
					return
				}
				writeError(w, http.StatusForbidden, "forbidden")
			}
		})
	}
}
