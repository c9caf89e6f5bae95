// Package api implements the rtfm JSON API using chi.
package api

import (
	"bytes"
	"io"
	"net/http"

	"github.com/starford/rtfm/internal/signature"
)

const maxWebhookBody = 1 << 20

// SignatureMiddleware verifies the X-Hub-Signature-256 header against the
// request body. With an empty secret every request passes through. The body
// is buffered and restored for the next handler.
func SignatureMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
			if err != nil {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("payload too large"))
				return
			}
			if !signature.Verify([]byte(secret), body, r.Header.Get(signature.Header)) {
				writeJSON(w, http.StatusUnauthorized, errorBody("invalid signature"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
