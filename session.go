package sitekit

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// tokenTTL is the lifetime of an issued admin token.
const tokenTTL = 24 * time.Hour

// demoAccount is one entry of the fixed demo allow-list. The credential
// scheme is a placeholder for demos, not a security boundary.
type demoAccount struct {
	password string
	user     User
}

var demoAccounts = map[string]demoAccount{
	"admin": {
		password: "admin123",
		user: User{
			Username: "admin",
			Name:     "Администратор",
			Email:    "admin@zametka.app",
			Role:     RoleAdmin,
		},
	},
	"editor": {
		password: "editor123",
		user: User{
			Username: "editor",
			Name:     "Редактор",
			Email:    "editor@zametka.app",
			Role:     RoleEditor,
		},
	},
}

// SessionState is the snapshot passed to subscribers on every transition.
type SessionState struct {
	User            *User
	IsAuthenticated bool
}

// sessionClaims is the signed content of an admin token.
type sessionClaims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

type sessionSubscriber struct {
	fn func(SessionState)
}

// SessionStore tracks who is logged in, authorizes actions by role, and
// notifies subscribers of every state transition. It is constructed once at
// startup and passed by reference to consumers; the persisted token and
// user survive restarts until logout or expiry.
type SessionStore struct {
	mu          sync.Mutex
	storage     Storage
	secret      []byte
	log         *zap.Logger
	user        *User
	subscribers []*sessionSubscriber
}

// NewSessionStore creates a SessionStore over storage and restores any
// persisted session. A malformed or expired token is cleared silently and
// the store starts anonymous.
func NewSessionStore(storage Storage, secret string, log *zap.Logger) *SessionStore {
	if log == nil {
		log = zap.NewNop()
	}
	s := &SessionStore{storage: storage, secret: []byte(secret), log: log}
	s.restore()
	return s
}

// restore reads the persisted token and user. Any verification failure
// falls back to anonymous and removes the stale values.
func (s *SessionStore) restore() {
	raw, ok, err := s.storage.Get(keyAuthToken)
	if err != nil || !ok {
		return
	}
	claims, err := s.parseToken(string(raw))
	if err != nil {
		s.log.Info("discarding invalid persisted session", zap.Error(err))
		s.clearPersisted()
		return
	}
	userRaw, ok, err := s.storage.Get(keyUserData)
	if err != nil || !ok {
		s.clearPersisted()
		return
	}
	var user User
	if err := json.Unmarshal(userRaw, &user); err != nil || user.Username != claims.Username {
		s.clearPersisted()
		return
	}
	s.user = &user
}

// Login validates the credentials against the demo allow-list. On success
// it issues a signed 24h token, persists token and user, and notifies
// subscribers. On mismatch it returns an *AuthError and the state is
// unchanged.
func (s *SessionStore) Login(username, password string) (User, error) {
	s.mu.Lock()
	account, ok := demoAccounts[username]
	if !ok || subtle.ConstantTimeCompare([]byte(password), []byte(account.password)) != 1 {
		s.mu.Unlock()
		return User{}, &AuthError{Message: "Неверный логин или пароль"}
	}

	token, err := s.issueToken(account.user)
	if err != nil {
		s.mu.Unlock()
		return User{}, fmt.Errorf("issue token: %w", err)
	}
	if err := s.persist(token, account.user); err != nil {
		s.mu.Unlock()
		return User{}, err
	}
	user := account.user
	s.user = &user
	s.log.Info("login", zap.String("username", username), zap.String("role", string(user.Role)))
	s.notifyLocked()
	return user, nil
}

// Logout clears the persisted session and notifies subscribers. Logging out
// while anonymous is a permitted no-op.
func (s *SessionStore) Logout() {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return
	}
	s.clearPersisted()
	s.user = nil
	s.notifyLocked()
}

// ProfileUpdate carries the fields UpdateProfile may change. Empty fields
// are left unchanged.
type ProfileUpdate struct {
	Name   string
	Email  string
	Avatar string
}

// UpdateProfile merges upd into the current user, persists, and notifies
// subscribers. Only valid while authenticated.
func (s *SessionStore) UpdateProfile(upd ProfileUpdate) (User, error) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return User{}, ErrNotAuthenticated
	}
	user := *s.user
	if upd.Name != "" {
		user.Name = upd.Name
	}
	if upd.Email != "" {
		user.Email = upd.Email
	}
	if upd.Avatar != "" {
		user.Avatar = upd.Avatar
	}
	raw, err := json.Marshal(user)
	if err != nil {
		s.mu.Unlock()
		return User{}, &StorageError{Key: keyUserData, Err: err}
	}
	if err := s.storage.Set(keyUserData, raw); err != nil {
		s.mu.Unlock()
		return User{}, &StorageError{Key: keyUserData, Err: err}
	}
	s.user = &user
	s.notifyLocked()
	return user, nil
}

// Current returns a snapshot of the session state.
func (s *SessionStore) Current() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// IsAuthenticated reports whether a user is logged in.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// HasPermission reports whether the current user satisfies the required
// role: admin passes only for admins, editor passes for admins and editors.
// Anonymous sessions never pass.
func (s *SessionStore) HasPermission(required Role) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return false
	}
	switch required {
	case RoleAdmin:
		return s.user.Role == RoleAdmin
	case RoleEditor:
		return s.user.Role == RoleAdmin || s.user.Role == RoleEditor
	default:
		return false
	}
}

// Verify reports whether token is the currently persisted session token and
// still passes signature and expiry checks. The HTTP layer calls this with
// the token carried by the admin cookie.
func (s *SessionStore) Verify(token string) bool {
	if token == "" {
		return false
	}
	if _, err := s.parseToken(token); err != nil {
		return false
	}
	raw, ok, err := s.storage.Get(keyAuthToken)
	if err != nil || !ok {
		return false
	}
	return subtle.ConstantTimeCompare(raw, []byte(token)) == 1
}

// Token returns the persisted session token, or "" while anonymous.
func (s *SessionStore) Token() string {
	raw, ok, err := s.storage.Get(keyAuthToken)
	if err != nil || !ok {
		return ""
	}
	return string(raw)
}

// Subscribe registers fn to run synchronously, in registration order, on
// every state transition. The returned function removes exactly this
// registration; calling it more than once is harmless.
func (s *SessionStore) Subscribe(fn func(SessionState)) func() {
	sub := &sessionSubscriber{fn: fn}
	s.mu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, candidate := range s.subscribers {
			if candidate == sub {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

// notifyLocked snapshots state and subscribers, releases the lock, and
// invokes every subscriber. Callers must hold s.mu; it is released on
// return so callbacks may call back into the store.
func (s *SessionStore) notifyLocked() {
	state := s.stateLocked()
	subs := make([]*sessionSubscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.fn(state)
	}
}

func (s *SessionStore) stateLocked() SessionState {
	if s.user == nil {
		return SessionState{}
	}
	user := *s.user
	return SessionState{User: &user, IsAuthenticated: true}
}

func (s *SessionStore) issueToken(user User) (string, error) {
	now := time.Now()
	claims := &sessionClaims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *SessionStore) parseToken(tokenString string) (*sessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (s *SessionStore) persist(token string, user User) error {
	if err := s.storage.Set(keyAuthToken, []byte(token)); err != nil {
		return &StorageError{Key: keyAuthToken, Err: err}
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return &StorageError{Key: keyUserData, Err: err}
	}
	if err := s.storage.Set(keyUserData, raw); err != nil {
		return &StorageError{Key: keyUserData, Err: err}
	}
	return nil
}

func (s *SessionStore) clearPersisted() {
	_ = s.storage.Delete(keyAuthToken)
	_ = s.storage.Delete(keyUserData)
}
