package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	PurposeSession = "session"
	PurposeReset   = "reset"
	PurposeVerify  = "verify"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the non-secret subset of a user record carried by a session token.
type Identity struct {
	UserID    string
	FirstName string
	LastName  string
	Email     string
	Verified  bool
}

type SessionClaims struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email"`
	Verified  bool   `json:"userVerificationStatus"`
	Purpose   string `json:"purpose"`
	jwtlib.RegisteredClaims
}

func (c *SessionClaims) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// ActionClaims back the single purpose reset and verification links.
type ActionClaims struct {
	Purpose string `json:"purpose"`
	Version int64  `json:"ver,omitempty"`
	Email   string `json:"email,omitempty"`
	jwtlib.RegisteredClaims
}

type Config struct {
	Secret     []byte
	Issuer     string
	SessionTTL time.Duration
	ResetTTL   time.Duration
	VerifyTTL  time.Duration
	Now        func() time.Time
}

// Issuer signs and verifies every token the service hands out. The secret is
// fixed for the lifetime of the value.
type Issuer struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
	resetTTL   time.Duration
	verifyTTL  time.Duration
	now        func() time.Time
}

func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.SessionTTL <= 0 || cfg.ResetTTL <= 0 || cfg.VerifyTTL <= 0 {
		return nil, fmt.Errorf("jwt ttl must be positive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &Issuer{
		secret:     secret,
		issuer:     cfg.Issuer,
		sessionTTL: cfg.SessionTTL,
		resetTTL:   cfg.ResetTTL,
		verifyTTL:  cfg.VerifyTTL,
		now:        now,
	}, nil
}

func (i *Issuer) ResetTTL() time.Duration {
	return i.resetTTL
}

func (i *Issuer) IssueSession(id Identity) (string, *SessionClaims, error) {
	if id.UserID == "" {
		return "", nil, fmt.Errorf("user id is required")
	}
	claims := &SessionClaims{
		UserID:           id.UserID,
		FirstName:        id.FirstName,
		LastName:         id.LastName,
		Email:            id.Email,
		Verified:         id.Verified,
		Purpose:          PurposeSession,
		RegisteredClaims: i.registered(id.UserID, i.sessionTTL),
	}
	token, err := i.sign(claims)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

func (i *Issuer) ParseSession(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := i.parse(token, claims); err != nil {
		return nil, err
	}
	if claims.Purpose != PurposeSession || claims.UserID == "" || claims.UserID != claims.Subject {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueReset binds the token to the user's current token version, so it stops
// working as soon as the credential changes.
func (i *Issuer) IssueReset(userID string, version int64) (string, error) {
	return i.sign(&ActionClaims{
		Purpose:          PurposeReset,
		Version:          version,
		RegisteredClaims: i.registered(userID, i.resetTTL),
	})
}

func (i *Issuer) IssueVerify(userID, email string) (string, error) {
	return i.sign(&ActionClaims{
		Purpose:          PurposeVerify,
		Email:            email,
		RegisteredClaims: i.registered(userID, i.verifyTTL),
	})
}

func (i *Issuer) ParseAction(token, purpose string) (*ActionClaims, error) {
	claims := &ActionClaims{}
	if err := i.parse(token, claims); err != nil {
		return nil, err
	}
	if claims.Purpose != purpose || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *Issuer) registered(subject string, ttl time.Duration) jwtlib.RegisteredClaims {
	now := i.now()
	return jwtlib.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwtlib.NewNumericDate(now),
		ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
	}
}

func (i *Issuer) sign(claims jwtlib.Claims) (string, error) {
	if subject, _ := claims.GetSubject(); subject == "" {
		return "", fmt.Errorf("token subject is required")
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *Issuer) parse(tokenString string, claims jwtlib.Claims) error {
	if tokenString == "" {
		return ErrInvalidToken
	}
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(i.now),
		jwtlib.WithExpirationRequired(),
	}
	if i.issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(i.issuer))
	}
	token, err := jwtlib.ParseWithClaims(tokenString, claims, func(token *jwtlib.Token) (interface{}, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
