// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

package auth

import (
	"net/http"
	"strings"

	"github.com/agoranet/agora/internal/logging"
)

// Middleware resolves viewer identity for each request.
//
// No Authorization header means the request proceeds anonymously. A
// bearer token that fails verification is rejected with 401 rather than
// downgraded, so clients notice expired tokens instead of silently
// losing personalization. A nil verifier treats every request as
// anonymous.
func Middleware(verifier *TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || verifier == nil {
				next.ServeHTTP(w, r)
				return
			}

			// The auth scheme is case-insensitive per RFC 7235.
			const prefix = "Bearer "
			if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
				http.Error(w, "malformed authorization header", http.StatusUnauthorized)
				return
			}
			token := header[len(prefix):]

			claims, err := verifier.Parse(token)
			if err != nil {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("token rejected")
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}
			viewerID, err := claims.ViewerID()
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := ContextWithViewer(r.Context(), viewerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
