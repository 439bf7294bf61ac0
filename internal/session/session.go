package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campusdesk/complaint-console/internal/models"
	appErrors "github.com/campusdesk/complaint-console/pkg/errors"
)

// Session is the persisted login state: an opaque bearer token plus the
// viewer's role, display name and, for students, their identifier. It lives
// for the session duration and is cleared on logout.
type Session struct {
	Token     string             `json:"token"`
	Role      models.AccountRole `json:"role"`
	Name      string             `json:"name"`
	StudentID string             `json:"studentId,omitempty"`
}

// Store persists the session between console invocations.
type Store struct {
	path string
}

// NewStore constructs a session store rooted at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted session. It returns nil without error when no
// session exists.
func (s *Store) Load() (*Session, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, 0, "read session file")
	}
	sess := &Session{}
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, 0, "decode session file")
	}
	if sess.Token == "" {
		return nil, nil
	}
	return sess, nil
}

// Save writes the session with owner-only permissions.
func (s *Store) Save(sess *Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, 0, "create session directory")
	}
	raw, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, 0, "encode session")
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, 0, "write session file")
	}
	return nil
}

// Clear removes the persisted session.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, 0, "remove session file")
	}
	return nil
}

// TokenInfo is what the console can read out of a JWT-shaped token without
// holding the signing secret.
type TokenInfo struct {
	Role      string
	ExpiresAt time.Time
}

// PeekClaims parses a token without verifying its signature to surface role
// and expiry hints. Identity assertion stays with the service; this exists
// only for display and early expiry warnings. Opaque tokens return ok=false.
func PeekClaims(token string) (TokenInfo, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, false
	}
	info := TokenInfo{}
	if role, ok := claims["role"].(string); ok {
		info.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, true
}

// Expired reports whether the token carries an expiry in the past.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && i.ExpiresAt.Before(now)
}
