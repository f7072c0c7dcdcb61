package middleware

import (
	"context"
	"net/http"
)

const ClientIDKey contextKey = "client_id"

// ClientID extracts the caller-supplied X-Client-ID header into context.
// The header is optional: anonymous searches are allowed, but history
// endpoints require it and reject requests without one themselves.
func ClientID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := r.Header.Get("X-Client-ID")
		if clientID == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ClientIDKey, clientID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientID returns the client ID from context.
func GetClientID(ctx context.Context) string {
	clientID, _ := ctx.Value(ClientIDKey).(string)
	return clientID
}
