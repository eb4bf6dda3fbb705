package auth

import (
	"testing"
	"time"

	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		Issuer:                "identity",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestJWTService()
	userID, branchID := uuid.New(), uuid.New()

	token, expiresAt, err := svc.GenerateAccessToken(GenerateTokenInput{
		UserID: userID, Username: "amna", Role: fee.RoleBranchAdmin, BranchID: branchID,
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, time.Second)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "identity", claims.Issuer)
	assert.Greater(t, claims.GetRemainingTTL(), 14*time.Minute)

	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, fee.Actor{ID: userID, Role: fee.RoleBranchAdmin, BranchID: branchID}, actor)
}

func TestParentActorCarriesStudents(t *testing.T) {
	svc := newTestJWTService()
	students := []uuid.UUID{uuid.New(), uuid.New()}

	token, _, err := svc.GenerateAccessToken(GenerateTokenInput{UserID: uuid.New(), Role: fee.RoleParent, StudentIDs: students})
	require.NoError(t, err)
	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, students, actor.StudentIDs)
	assert.Equal(t, uuid.Nil, actor.BranchID)
}

func TestValidateAccessToken_Failures(t *testing.T) {
	svc := newTestJWTService()
	valid, _, err := svc.GenerateAccessToken(GenerateTokenInput{UserID: uuid.New(), Role: fee.RoleSuperAdmin})
	require.NoError(t, err)

	sign := func(claims *Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	base := func(exp, nbf time.Time) *Claims {
		return &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "identity",
				ExpiresAt: jwt.NewNumericDate(exp),
				NotBefore: jwt.NewNumericDate(nbf),
			},
			UserID: uuid.NewString(),
			Role:   "super_admin",
		}
	}
	now := time.Now()
	secret := []byte("test-secret-key-at-least-32-chars")

	noUser := base(now.Add(time.Hour), now.Add(-time.Minute))
	noUser.UserID = ""
	wrongIssuer := base(now.Add(time.Hour), now.Add(-time.Minute))
	wrongIssuer.Issuer = "someone-else"

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not.a.token", ErrInvalidToken},
		{"tampered", valid + "x", ErrInvalidToken},
		{"other secret", sign(base(now.Add(time.Hour), now), jwt.SigningMethodHS256, []byte("other")), ErrInvalidToken},
		{"alg none", sign(base(now.Add(time.Hour), now), jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType), ErrInvalidToken},
		{"expired", sign(base(now.Add(-time.Minute), now.Add(-time.Hour)), jwt.SigningMethodHS256, secret), ErrExpiredToken},
		{"not yet valid", sign(base(now.Add(2*time.Hour), now.Add(time.Hour)), jwt.SigningMethodHS256, secret), ErrTokenNotYetValid},
		{"wrong issuer", sign(wrongIssuer, jwt.SigningMethodHS256, secret), ErrInvalidToken},
		{"missing user", sign(noUser, jwt.SigningMethodHS256, secret), ErrMissingUserID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClaimsActor_Failures(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		want   error
	}{
		{"bad user id", Claims{UserID: "x", Role: "parent"}, ErrInvalidClaims},
		{"unknown role", Claims{UserID: uuid.NewString(), Role: "accountant"}, ErrUnknownRole},
		{"branch admin without branch", Claims{UserID: uuid.NewString(), Role: "branch_admin"}, ErrMissingBranchID},
		{"bad branch id", Claims{UserID: uuid.NewString(), Role: "branch_admin", BranchID: "x"}, ErrInvalidClaims},
		{"bad student id", Claims{UserID: uuid.NewString(), Role: "parent", StudentIDs: []string{"x"}}, ErrInvalidClaims},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.claims.Actor()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
