// Package vault defines the interface to the external consent/passport
// store and its client implementations. The vault owns durable persistence
// and token issuance; this package only speaks its contract.
package vault

import (
	"context"
	"errors"

	"github.com/heirloomhq/heirloom/pkg/passport"
)

// Store is the passport/memory persistence contract. The HTTP client talks
// to a remote vault service; the inmemory and sqlite drivers back local and
// test modes with the same semantics.
type Store interface {
	// CreatePassport stores a new passport document and returns its id.
	CreatePassport(ctx context.Context, doc *passport.Passport) (string, error)

	// UpdatePassport replaces the document body of an existing passport.
	UpdatePassport(ctx context.Context, passportID string, doc *passport.Passport) error

	// ListPassports returns summary info for all stored passports.
	ListPassports(ctx context.Context) ([]Info, error)

	// FindPassportByContributor returns the id of the passport whose
	// primary contributor has the given name, or "" when none exists.
	FindPassportByContributor(ctx context.Context, name string) (string, error)

	// CreateMemory stores one memory under an existing passport.
	CreateMemory(ctx context.Context, passportID string, mem passport.Memory) error

	// ListMemories returns all memories stored under a passport.
	ListMemories(ctx context.Context, passportID string) ([]passport.Memory, error)

	// ExportPassport returns the full document for a passport id.
	ExportPassport(ctx context.Context, passportID string) (*passport.Passport, error)

	// Close releases client resources.
	Close() error
}

// Info summarizes a stored passport.
type Info struct {
	PassportID  string `json:"passportId"`
	FamilyName  string `json:"familyName"`
	Contributor string `json:"contributor"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// Consent is the result of validating an access token with the vault.
type Consent struct {
	Valid   bool     `json:"valid"`
	Scopes  []string `json:"scopes,omitempty"`
	Subject string   `json:"subject,omitempty"`
}

// ConsentChecker validates access tokens against the vault. Validation is
// fresh on every call and never cached; a revoked token must take effect
// immediately.
type ConsentChecker interface {
	ConsentStatus(ctx context.Context, token string) (Consent, error)
}

// NotFoundError is returned when a passport or memory does not exist.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "passport not found"
	}
	return "passport not found: " + e.ID
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
