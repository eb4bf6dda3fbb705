package auth

import (
	"errors"
	"time"

	"github.com/feeledger/backend/internal/domain/fee"
	"github.com/feeledger/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrUnknownRole      = errors.New("unknown role in claims")
	ErrMissingBranchID  = errors.New("branch administrator token without branch_id")
)

// Claims are the access token claims minted by the identity service
type Claims struct {
	jwt.RegisteredClaims
	UserID     string   `json:"user_id"`
	Username   string   `json:"username,omitempty"`
	Role       string   `json:"role"`
	BranchID   string   `json:"branch_id,omitempty"`
	StudentIDs []string `json:"student_ids,omitempty"`
}

// JWTService validates access tokens. Tokens are normally issued by the
// identity service; GenerateAccessToken exists for seeding and tests.
type JWTService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	expiration := cfg.AccessTokenExpiration
	if expiration <= 0 {
		expiration = 15 * time.Minute
	}
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: expiration,
	}
}

// GenerateTokenInput contains input for token generation
type GenerateTokenInput struct {
	UserID     uuid.UUID
	Username   string
	Role       fee.Role
	BranchID   uuid.UUID
	StudentIDs []uuid.UUID
}

// GenerateAccessToken signs an access token for input
func (s *JWTService) GenerateAccessToken(input GenerateTokenInput) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiration)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   input.UserID.String(),
		Username: input.Username,
		Role:     string(input.Role),
	}
	if input.BranchID != uuid.Nil {
		claims.BranchID = input.BranchID.String()
	}
	for _, id := range input.StudentIDs {
		claims.StudentIDs = append(claims.StudentIDs, id.String())
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken validates an access token and returns its claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// Actor converts the claims into the ledger's view of the caller
func (c *Claims) Actor() (fee.Actor, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return fee.Actor{}, ErrInvalidClaims
	}
	role := fee.Role(c.Role)
	if !role.IsValid() {
		return fee.Actor{}, ErrUnknownRole
	}

	actor := fee.Actor{ID: userID, Role: role}
	if c.BranchID != "" {
		if actor.BranchID, err = uuid.Parse(c.BranchID); err != nil {
			return fee.Actor{}, ErrInvalidClaims
		}
	}
	if role == fee.RoleBranchAdmin && actor.BranchID == uuid.Nil {
		return fee.Actor{}, ErrMissingBranchID
	}
	for _, raw := range c.StudentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fee.Actor{}, ErrInvalidClaims
		}
		actor.StudentIDs = append(actor.StudentIDs, id)
	}
	return actor, nil
}

// GetRemainingTTL returns the remaining time until the token expires
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}
