// Package keys decides which Gemini credential a request runs under:
// an explicitly supplied key, the user's stored personal key, or the
// process-wide shared key, in that order.
package keys

import (
	"context"
	"errors"
	"regexp"

	"github.com/tborer/resume-helper/internal/store"
)

// ErrNoCredential means no key could be resolved by any path.
var ErrNoCredential = errors.New("no API key available; add your Gemini API key in the account settings")

// Gemini keys start with "AI" followed by at least 30 URL-safe characters.
var keyFormatRe = regexp.MustCompile(`^AI[a-zA-Z0-9_-]{30,}$`)

// Credential is a resolved provider key. Shared marks the process-wide
// key, whose use is subject to the daily quota.
type Credential struct {
	Key    string
	Shared bool
}

type PersonalKeyStore interface {
	PersonalKey(ctx context.Context, email string) (string, error)
}

type Resolver struct {
	store     PersonalKeyStore
	sharedKey string
}

func NewResolver(s PersonalKeyStore, sharedKey string) *Resolver {
	return &Resolver{store: s, sharedKey: sharedKey}
}

// Resolve is a read-only lookup; it never counts usage. An explicit key
// always wins and is treated as personal. An unknown user simply has no
// personal key and falls through to the shared one.
func (r *Resolver) Resolve(ctx context.Context, email, explicitKey string) (Credential, error) {
	if explicitKey != "" {
		return Credential{Key: explicitKey}, nil
	}

	if email != "" && r.store != nil {
		key, err := r.store.PersonalKey(ctx, email)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return Credential{}, err
		}
		if key != "" {
			return Credential{Key: key}, nil
		}
	}

	if r.sharedKey != "" {
		return Credential{Key: r.sharedKey, Shared: true}, nil
	}
	return Credential{}, ErrNoCredential
}

// ValidFormat reports whether a key looks like a Gemini API key. Used to
// reject typos before storing a personal key, not as proof of validity.
func ValidFormat(key string) bool {
	return keyFormatRe.MatchString(key)
}
