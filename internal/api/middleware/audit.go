package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Audit logs every mutating API request with the caller's identity, the
// targeted resource and the resulting status.
func Audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isWrite(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		resourceType, resourceID := extractResource(r.URL.Path)
		event := zerolog.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("resource_type", resourceType).
			Int("status", sw.status)
		if resourceID != "" {
			event = event.Str("resource_id", resourceID)
		}
		if id := GetIdentity(r.Context()); id != nil {
			event = event.Str("issuer", id.Issuer).Str("subject", id.Subject)
		}
		event.Msg("audit")
	})
}

// extractResource returns the collection and uid a path points at. Nested
// relationship paths report the innermost pair, e.g.
// /api/v1/projects/p/flavors/f gives flavors and f.
func extractResource(path string) (string, string) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(path, "/api/v1/"), "/"), "/")

	var resourceType, resourceID string
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i%2 == 0 {
			resourceType = part
			resourceID = ""
		} else {
			resourceID = part
		}
	}

	return resourceType, resourceID
}
