// Package authtest signs session tokens for handler tests.
package authtest

import (
	"testing"
	"time"

	"github.com/uptrace/bun"

	"ms-storefront/internal/auth"
	"ms-storefront/internal/logger"
)

// OwnerSubject is promoted to admin by the authenticator New returns.
const OwnerSubject = "owner"

type Tokens struct {
	t        *testing.T
	verifier *auth.HMACVerifier
}

// New returns an authenticator backed by db and a token signer for it.
func New(t *testing.T, db *bun.DB) (*auth.Authenticator, *Tokens) {
	t.Helper()
	v := &auth.HMACVerifier{Secret: []byte("authtest-secret")}
	a := auth.NewAuthenticator(v, &auth.UserDB{Bun: db}, OwnerSubject, logger.NewNopLogger())
	return a, &Tokens{t: t, verifier: v}
}

// Bearer returns an Authorization header value for subject.
func (tk *Tokens) Bearer(subject string) string {
	tk.t.Helper()
	tok, err := tk.verifier.Sign(subject, subject, subject+"@example.com", time.Hour)
	if err != nil {
		tk.t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + tok
}

func (tk *Tokens) Admin() string {
	return tk.Bearer(OwnerSubject)
}
