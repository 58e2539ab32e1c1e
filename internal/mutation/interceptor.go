// Package mutation hosts the write-path interceptor that runs after
// authorization and before the store commit. It overwrites server-controlled
// fields instead of trusting client input and hashes freshly created user
// passwords.
package mutation

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/policy"
)

// ErrNoCaller is returned when owner injection is required but the request
// has no resolvable caller identity.
var ErrNoCaller = errors.New("caller identity required")

// Interceptor mutates in-flight entities before they are committed. It does
// not perform the commit itself.
type Interceptor struct {
	hasher *auth.Hasher
	logger *zap.Logger
}

// NewInterceptor creates an Interceptor.
func NewInterceptor(hasher *auth.Hasher, logger *zap.Logger) *Interceptor {
	return &Interceptor{hasher: hasher, logger: logger}
}

// Apply runs the interception rules for one entity about to be written.
// verb is the HTTP verb of the current operation; POST marks the primary
// creation path.
//
// Rules:
//   - Comment and Order instances on any write verb other than POST get
//     their owning-user reference overwritten with the caller's identity,
//     discarding whatever the client sent.
//   - A User on the POST path with a non-empty plaintext password gets the
//     password replaced by its hash. Later updates never re-hash.
func (i *Interceptor) Apply(caller *policy.Caller, verb string, entity any) error {
	switch e := entity.(type) {
	case *domain.Comment:
		if verb == http.MethodPost {
			return nil
		}
		if caller == nil {
			return ErrNoCaller
		}
		if e.UserID != caller.ID {
			i.logger.Debug("Overwriting comment author from caller context",
				zap.String("comment_id", e.ID.String()),
			)
		}
		e.UserID = caller.ID

	case *domain.Order:
		if verb == http.MethodPost {
			return nil
		}
		if caller == nil {
			return ErrNoCaller
		}
		e.UserID = caller.ID

	case *domain.User:
		if verb != http.MethodPost || e.PasswordHash == "" {
			return nil
		}
		hash, err := i.hasher.Hash(e.PasswordHash)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		e.PasswordHash = hash
	}

	return nil
}
