package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/arcms/internal/common"
	"github.com/dmitrijs2005/arcms/internal/server/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// authenticate resolves the bearer access token into claims stored in the
// request context. Any failure is a 401.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get(common.AuthorizationHeaderName))
		if !ok {
			h.writeError(w, r, common.ErrInvalidToken)
			return
		}

		claims, err := h.tokens.ParseAccess(token)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, strings.TrimSpace(common.BearerPrefix)) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func claimsFrom(ctx context.Context) *auth.AccessClaims {
	claims, _ := ctx.Value(claimsKey).(*auth.AccessClaims)
	return claims
}

// userID is the authenticated caller. Only valid behind authenticate.
func userID(r *http.Request) string {
	if c := claimsFrom(r.Context()); c != nil {
		return c.UserID
	}
	return ""
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.logger.Info(r.Context(), "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
