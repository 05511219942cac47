package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vidshare/backend/internal/models"
)

var (
	// ErrInvalidToken indicates the bearer token is malformed or its signature does not verify.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrTokenExpired indicates the bearer token was valid but is past its expiry.
	ErrTokenExpired = errors.New("session token expired")
)

// DefaultTTL is how long an issued session token stays valid.
const DefaultTTL = 10 * 24 * time.Hour

type sessionClaims struct {
	UserID      string `json:"id"`
	Email       string `json:"email"`
	ChannelName string `json:"channelName"`
	Phone       string `json:"phone"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 session tokens. Tokens are stateless: there is
// no server-side revocation, a token stays valid until it expires.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec constructs a Codec using the shared secret and token lifetime.
func NewCodec(secret string, ttl time.Duration) *Codec {
	if secret == "" {
		panic("auth: signing secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithNowFunc overrides the clock. Intended for tests.
func (c *Codec) WithNowFunc(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Issue signs a token for the user and returns it together with its expiry.
func (c *Codec) Issue(user models.User) (string, time.Time, error) {
	if user.ID == "" {
		return "", time.Time{}, errors.New("user id must be provided")
	}

	issuedAt := c.now().UTC()
	expiresAt := issuedAt.Add(c.ttl)

	claims := sessionClaims{
		UserID:      user.ID,
		Email:       user.Email,
		ChannelName: user.ChannelName,
		Phone:       user.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}

	return signed, expiresAt, nil
}

// Parse verifies the token signature and expiry and returns its claims.
func (c *Codec) Parse(token string) (models.SessionClaims, error) {
	if token == "" {
		return models.SessionClaims{}, ErrInvalidToken
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.SessionClaims{}, ErrTokenExpired
		}
		return models.SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return models.SessionClaims{}, ErrInvalidToken
	}

	out := models.SessionClaims{
		UserID:      claims.UserID,
		Email:       claims.Email,
		ChannelName: claims.ChannelName,
		Phone:       claims.Phone,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return out, nil
}
