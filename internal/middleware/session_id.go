package middleware

import (
	"context"
	"net/http"
	"strings"
)

const HeaderSessionID = "X-Session-Id"

const maxSessionIDLen = 128

// RequireSessionID rejects requests without an X-Session-Id header and stores
// the id in the request context. Issuing ids is the client's concern.
func RequireSessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimSpace(r.Header.Get(HeaderSessionID))
		if sid == "" || len(sid) > maxSessionIDLen {
			WriteError(w, r, http.StatusBadRequest, "cabeçalho obrigatório ausente: X-Session-Id")
			return
		}
		ctx := context.WithValue(r.Context(), ctxSessionID, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetSessionID(ctx context.Context) string {
	if v := ctx.Value(ctxSessionID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
