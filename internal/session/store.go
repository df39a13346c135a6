package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TokenFileName is the fixed name of the stored bearer token.
const TokenFileName = "access_token"

var ErrNotAuthenticated = errors.New("not logged in, run `cq login` first")

// Store persists the bearer token in a single file.
type Store struct {
	path string
	now  func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{
		path: filepath.Join(dir, TokenFileName),
		now:  time.Now,
	}
}

func (s *Store) Path() string {
	return s.path
}

// Token returns the stored token. Read failures count as no token.
func (s *Store) Token() (string, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", false
	}
	token := strings.TrimSpace(string(data))
	return token, token != ""
}

func (s *Store) Save(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("refusing to store an empty token")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("writing token: %w", err)
	}
	return nil
}

// Clear removes the stored token. Clearing an absent token is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token: %w", err)
	}
	return nil
}

// Guard returns the stored token, or ErrNotAuthenticated when there is none.
// A token that decodes as an expired JWT is cleared and treated as absent.
func (s *Store) Guard() (string, error) {
	token, ok := s.Token()
	if !ok {
		return "", ErrNotAuthenticated
	}
	if info, err := Inspect(token); err == nil && info.Expired(s.now()) {
		_ = s.Clear()
		return "", ErrNotAuthenticated
	}
	return token, nil
}
