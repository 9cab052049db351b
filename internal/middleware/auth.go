package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
)

type contextKey string

const ClientKey contextKey = "client"

// KeysFromList names each configured key client-1, client-2, ...
func KeysFromList(keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for i, k := range keys {
		out[fmt.Sprintf("client-%d", i+1)] = k
	}
	return out
}

// APIKeyAuth validates the key from "Authorization: Bearer <key>" or
// X-API-Key. With no keys configured every request passes as "anonymous".
func APIKeyAuth(validKeys map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(validKeys) == 0 {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ClientKey, "anonymous")))
				return
			}

			apiKey := strings.TrimSpace(r.Header.Get("X-API-Key"))
			if apiKey == "" {
				auth := r.Header.Get("Authorization")
				if auth == "" {
					writeError(w, http.StatusUnauthorized, "missing Authorization header")
					return
				}
				// Support both "Bearer <key>" and "<key>" formats
				apiKey = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			}
			if apiKey == "" {
				writeError(w, http.StatusUnauthorized, "invalid Authorization header format")
				return
			}

			// constant-time comparison
			client := ""
			for name, key := range validKeys {
				if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
					client = name
					break
				}
			}
			if client == "" {
				writeError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ClientKey, client)))
		})
	}
}

// GetClientFromContext extracts the authenticated client name
func GetClientFromContext(ctx context.Context) string {
	if c, ok := ctx.Value(ClientKey).(string); ok {
		return c
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`+"\n", msg)
}
