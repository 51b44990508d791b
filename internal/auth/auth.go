package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Makepad-fr/ttsdeck/internal/store/jsonstore"
)

const (
	credFileName = "credentials.json"
	tokenEnv     = "TTSDECK_TOKEN"
)

// ErrTokenExpired is returned by SetToken for a JWT whose exp has passed.
var ErrTokenExpired = errors.New("token is already expired")

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // from the JWT exp claim, if any
}

// Expired reports whether the token carries an expiry that has passed.
func (ti *TokenInfo) Expired(now time.Time) bool {
	return ti.ExpiresAt != nil && now.After(*ti.ExpiresAt)
}

// Store keeps the bearer token under Dir (default ~/.ttsdeck).
type Store struct {
	Dir string
}

// DefaultStore returns the store rooted in the user's home directory.
func DefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("home: %w", err)
	}
	return &Store{Dir: filepath.Join(home, ".ttsdeck")}, nil
}

func (s *Store) path() string { return filepath.Join(s.Dir, credFileName) }

// GetToken returns the env token if set, else the saved one. A nil result
// with a nil error means "not logged in".
func (s *Store) GetToken() (*TokenInfo, error) {
	// 1) env override
	env := strings.TrimSpace(os.Getenv(tokenEnv))
	if env != "" {
		token := stripBearer(env)
		return &TokenInfo{Token: token, Source: "env", ExpiresAt: expiry(token)}, nil
	}

	// 2) file
	var ti TokenInfo
	if err := jsonstore.Load(s.path(), &ti); err != nil {
		if errors.Is(err, jsonstore.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	ti.Token = stripBearer(ti.Token)
	return &ti, nil
}

// SetToken saves token with owner-only permissions. An expired JWT is
// rejected and the saved token, if any, is left alone.
func (s *Store) SetToken(token string) (*TokenInfo, error) {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}
	ti := &TokenInfo{
		Token:     token,
		Source:    "file",
		CreatedAt: time.Now(),
		ExpiresAt: expiry(token),
	}
	if ti.Expired(ti.CreatedAt) {
		return nil, ErrTokenExpired
	}
	if err := jsonstore.Save(s.path(), ti, 0o600); err != nil {
		return nil, err
	}
	return ti, nil
}

// DeleteToken forgets the saved token.
func (s *Store) DeleteToken() error {
	return jsonstore.Remove(s.path())
}

// Claims decodes the payload of a JWT without verifying it; the server is
// the one that checks signatures.
func Claims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("not a JWT: %w", err)
	}
	return claims, nil
}

func expiry(token string) *time.Time {
	claims, err := Claims(token)
	if err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
