package foresight

import (
	"errors"
	"maps"
	"slices"
)

// Identity is the opaque handle of a signed-in user. The zero value means nobody.
type Identity string

// IsZero reports whether id denotes no identity.
func (id Identity) IsZero() bool { return id == "" }

func (id Identity) String() string { return string(id) }

// ErrInvalidCredentials is returned when an identity is unknown or its secret does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials is a fixed, read-only table of identities and their secrets.
type Credentials struct {
	secrets map[string]string
}

// NewCredentials returns a Credentials table holding a copy of secrets.
func NewCredentials(secrets map[string]string) *Credentials {
	return &Credentials{secrets: maps.Clone(secrets)}
}

// DefaultCredentials is the sample table shipped with the application.
var DefaultCredentials = NewCredentials(map[string]string{
	"user1": "pass1",
	"user2": "pass2",
	"user3": "pass3",
})

// Authenticate returns the Identity for identity if secret matches exactly.
// There is no lockout nor rate limiting.
func (c *Credentials) Authenticate(identity, secret string) (Identity, error) {
	stored, ok := c.secrets[identity]
	if !ok || stored != secret {
		return "", ErrInvalidCredentials
	}
	return Identity(identity), nil
}

// Identities returns the known identities in lexical order.
func (c *Credentials) Identities() []string {
	return slices.Sorted(maps.Keys(c.secrets))
}
