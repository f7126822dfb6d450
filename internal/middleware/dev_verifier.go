package middleware

import (
	"context"
	"errors"
	"strings"

	"firebase.google.com/go/v4/auth"
)

const devTokenPrefix = "dev:"

// DevTokenVerifier accepts unsigned "dev:<uid>[:<email>]" tokens. It exists
// for local runs against the memory store and must never serve production.
type DevTokenVerifier struct{}

func (DevTokenVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if !strings.HasPrefix(idToken, devTokenPrefix) {
		return nil, errors.New("not a dev token")
	}
	uid, email, _ := strings.Cut(strings.TrimPrefix(idToken, devTokenPrefix), ":")
	if uid == "" {
		return nil, errors.New("dev token has no uid")
	}
	claims := map[string]interface{}{}
	if email != "" {
		claims["email"] = email
	}
	return &auth.Token{UID: uid, Subject: uid, Claims: claims}, nil
}
