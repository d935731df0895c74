package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/ledger/internal/config"
	"github.com/JonMunkholm/ledger/internal/logging"
)

type ctxKey int

const (
	memberKey ctxKey = iota
	holderKey
)

// anonymous is the member name used when authentication is disabled.
const anonymous = "anonymous"

type memberHolder struct {
	member string
}

func withMemberHolder(ctx context.Context, h *memberHolder) context.Context {
	return context.WithValue(ctx, holderKey, h)
}

// WithMember returns ctx carrying the authenticated member name.
func WithMember(ctx context.Context, member string) context.Context {
	if h, ok := ctx.Value(holderKey).(*memberHolder); ok {
		h.member = member
	}
	return context.WithValue(ctx, memberKey, member)
}

// Member returns the member authenticated for the request, or "" if none.
func Member(ctx context.Context) string {
	m, _ := ctx.Value(memberKey).(string)
	return m
}

type apiKey struct {
	member string
	key    []byte
}

// parseKeys splits member:key pairs. Malformed entries are skipped;
// config.Validate reports them at startup.
func parseKeys(entries []string) []apiKey {
	keys := make([]apiKey, 0, len(entries))
	for _, e := range entries {
		member, key, ok := strings.Cut(strings.TrimSpace(e), ":")
		if !ok || member == "" || key == "" {
			continue
		}
		keys = append(keys, apiKey{member: member, key: []byte(key)})
	}
	return keys
}

// APIKeyAuth validates the X-API-Key header against cfg.APIKeys. When
// RequireAPIKey is false every request passes as the anonymous member.
// When it is true but no keys are configured, every request is rejected.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	keys := parseKeys(cfg.APIKeys)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r.WithContext(WithMember(r.Context(), anonymous)))
				return
			}

			logger := logging.FromContext(r.Context())
			provided := r.Header.Get("X-API-Key")
			if provided == "" {
				logger.Warn("auth: missing API key", "path", r.URL.Path, "method", r.Method)
				authError(w, http.StatusUnauthorized, "missing API key", "AUTH001")
				return
			}

			member, ok := lookupMember(provided, keys)
			if !ok {
				logger.Warn("auth: invalid API key", "path", r.URL.Path, "method", r.Method)
				authError(w, http.StatusForbidden, "invalid API key", "AUTH002")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithMember(r.Context(), member)))
		})
	}
}

// lookupMember compares against every key in constant time so the
// response time does not depend on which key matched.
func lookupMember(provided string, keys []apiKey) (string, bool) {
	var member string
	found := 0
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(provided), k.key) == 1 {
			member = k.member
			found = 1
		}
	}
	return member, found == 1
}

func authError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   message,
		"message": message,
		"code":    code,
	})
}
