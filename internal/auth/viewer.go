// Agora - Civic Social Network Feed Engine
// Copyright 2026 Agora Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/agoranet/agora

// Package auth resolves viewer identity from JWT bearer tokens.
//
// The feed engine serves anonymous and authenticated viewers. Requests
// without a token proceed anonymously; requests with a malformed or
// expired token are rejected so a client never silently loses its
// personalized feed.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for malformed, expired or mis-signed
// tokens.
var ErrInvalidToken = errors.New("invalid token")

// ViewerClaims are the JWT claims carried by viewer tokens.
type ViewerClaims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// ViewerID parses the subject claim as the numeric viewer ID.
func (c *ViewerClaims) ViewerID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: subject %q is not a viewer ID", ErrInvalidToken, c.Subject)
	}
	return id, nil
}

// TokenVerifier validates viewer tokens signed with HMAC-SHA256.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier creates a verifier. An empty secret is rejected;
// callers that run without authentication skip the verifier entirely.
func NewTokenVerifier(secret, issuer string) (*TokenVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}, nil
}

// Parse validates the token and returns its claims.
func (v *TokenVerifier) Parse(tokenString string) (*ViewerClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &ViewerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Issue signs a token for the viewer, valid for ttl. Used by tests and
// by deployments that mint tokens at the edge.
func (v *TokenVerifier) Issue(viewerID int64, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &ViewerClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(viewerID, 10),
			Issuer:    v.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

type viewerContextKey struct{}

// ContextWithViewer stores the authenticated viewer ID in the context.
func ContextWithViewer(ctx context.Context, viewerID int64) context.Context {
	return context.WithValue(ctx, viewerContextKey{}, viewerID)
}

// ViewerFromContext returns the authenticated viewer ID, or 0 for
// anonymous requests.
func ViewerFromContext(ctx context.Context) int64 {
	if id, ok := ctx.Value(viewerContextKey{}).(int64); ok {
		return id
	}
	return 0
}
