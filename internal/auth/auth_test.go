package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func TestHasherVerify(t *testing.T) {
	hasher := NewHasher()

	hash, err := hasher.Hash("apiyaapiya")
	require.NoError(t, err)

	assert.NotEqual(t, "apiyaapiya", hash)
	assert.True(t, hasher.Verify("apiyaapiya", hash))
	assert.False(t, hasher.Verify("wrong-password", hash))
}

func TestHasherSaltedHashesDiffer(t *testing.T) {
	hasher := NewHasher()

	first, err := hasher.Hash("same-plaintext")
	require.NoError(t, err)
	second, err := hasher.Hash("same-plaintext")
	require.NoError(t, err)

	// Salted: equal plaintexts do not produce equal hashes, both verify.
	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify("same-plaintext", first))
	assert.True(t, hasher.Verify("same-plaintext", second))
}

func TestProperty_HashAlwaysVerifies(t *testing.T) {
	hasher := NewHasher()
	properties := gopter.NewProperties(nil)

	properties.Property("verify(p, hash(p)) holds for any password", prop.ForAll(
		func(password string) bool {
			hash, err := hasher.Hash(password)
			if err != nil {
				// bcrypt rejects inputs over 72 bytes
				return len(password) > 72
			}
			return hash != password && hasher.Verify(password, hash)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestTokenCarriesClaimSet(t *testing.T) {
	manager := NewTokenManager("test-secret")
	user := &domain.User{
		ID:           uuid.New(),
		Email:        "jane@example.com",
		PasswordHash: "$2a$10$somestoredhashvalue",
		FirstName:    "Jane",
		LastName:     "Doe",
		Roles:        []string{domain.RoleAdmin},
	}

	token, err := manager.Issue(user)
	require.NoError(t, err)

	claims, err := manager.Parse(token)
	require.NoError(t, err)

	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "jane@example.com", claims.Username)
	assert.Equal(t, "Jane", claims.FirstName)
	assert.Equal(t, "Doe", claims.LastName)
	assert.Equal(t, user.PasswordHash, claims.PasswordHash)
	assert.Contains(t, claims.Roles, domain.RoleUser)
	assert.Contains(t, claims.Roles, domain.RoleAdmin)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "jane@example.com"}

	token, err := NewTokenManager("secret-a").Issue(user)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b").Parse(token)
	assert.Error(t, err)
}

func TestTokenHashClaimTracksIssuanceTime(t *testing.T) {
	manager := NewTokenManager("test-secret")
	user := &domain.User{ID: uuid.New(), Email: "jane@example.com", PasswordHash: "hash-before"}

	before, err := manager.Issue(user)
	require.NoError(t, err)

	// Simulate a password rotation: the stored hash changes.
	user.PasswordHash = "hash-after"
	after, err := manager.Issue(user)
	require.NoError(t, err)

	beforeClaims, err := manager.Parse(before)
	require.NoError(t, err)
	afterClaims, err := manager.Parse(after)
	require.NoError(t, err)

	assert.Equal(t, "hash-before", beforeClaims.PasswordHash)
	assert.Equal(t, "hash-after", afterClaims.PasswordHash)
	assert.NotEqual(t, beforeClaims.PasswordHash, user.PasswordHash)
	assert.Equal(t, afterClaims.PasswordHash, user.PasswordHash)
}
