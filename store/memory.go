package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a process-local store implementing UserStore, AttemptStore and SessionStore.
// It backs STORE_DRIVER=memory and the service tests. A single mutex guards all maps, so
// IncrementLoginAttempt is atomic in the same way the SQL upsert is.
type Memory struct {
	mu       sync.Mutex
	users    map[string]*User // by id
	byEmail  map[string]string
	attempts map[string]*LoginAttempt
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	m := &Memory{now: time.Now}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.users = make(map[string]*User)
	m.byEmail = make(map[string]string)
	m.attempts = make(map[string]*LoginAttempt)
	m.sessions = make(map[string]*Session)
}

// copies are handed out so callers can never mutate stored records in place.
func cloneUser(u *User) *User {
	c := *u
	if u.HashedSecretPhrase != nil {
		v := *u.HashedSecretPhrase
		c.HashedSecretPhrase = &v
	}
	if u.AboutSlug != nil {
		v := *u.AboutSlug
		c.AboutSlug = &v
	}
	return &c
}

func (m *Memory) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(m.users[id]), nil
}

func (m *Memory) FindUserByID(ctx context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) CreateUser(ctx context.Context, u *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, taken := m.byEmail[email]; taken {
		return nil, ErrDuplicate
	}
	if u.AboutSlug != nil {
		for _, existing := range m.users {
			if existing.AboutSlug != nil && *existing.AboutSlug == *u.AboutSlug {
				return nil, ErrDuplicate
			}
		}
	}

	stored := cloneUser(u)
	stored.Email = email
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if _, taken := m.users[stored.ID]; taken {
		return nil, ErrDuplicate
	}
	if stored.Role == "" {
		stored.Role = RoleUser
	}
	stored.CreatedAt = m.now().UTC()

	m.users[stored.ID] = stored
	m.byEmail[email] = stored.ID
	return cloneUser(stored), nil
}

// DeleteUser removes the user and, like the ON DELETE CASCADE foreign key, its sessions.
func (m *Memory) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	delete(m.byEmail, u.Email)
	for sid, s := range m.sessions {
		if s.UserID == id {
			delete(m.sessions, sid)
		}
	}
	return nil
}

func (m *Memory) FindLoginAttempt(ctx context.Context, ip string) (*LoginAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[ip]
	if !ok {
		return nil, ErrNotFound
	}
	c := *a
	return &c, nil
}

func (m *Memory) IncrementLoginAttempt(ctx context.Context, ip string, at time.Time) (*LoginAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[ip]
	if !ok {
		a = &LoginAttempt{IP: ip}
		m.attempts[ip] = a
	}
	a.Attempts++
	a.UpdatedAt = at
	c := *a
	return &c, nil
}

func (m *Memory) ResetLoginAttempt(ctx context.Context, ip string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[ip]
	if !ok {
		return ErrNotFound
	}
	a.Attempts = 0
	a.UpdatedAt = at
	return nil
}

func (m *Memory) DeleteLoginAttempt(ctx context.Context, ip string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attempts, ip)
	return nil
}

func (m *Memory) DeleteStaleLoginAttempts(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for ip, a := range m.attempts {
		if a.UpdatedAt.Before(cutoff) {
			delete(m.attempts, ip)
			n++
		}
	}
	return n, nil
}

func (m *Memory) CreateSession(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.sessions[s.ID]; taken {
		return ErrDuplicate
	}
	if _, ok := m.users[s.UserID]; !ok {
		// Mirrors the foreign key on sessions.user_id.
		return ErrNotFound
	}
	c := *s
	m.sessions[s.ID] = &c
	return nil
}

func (m *Memory) FindSession(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *s
	return &c, nil
}

func (m *Memory) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *Memory) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if !s.ValidAt(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Wipe empties the store.
func (m *Memory) Wipe(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}

// Stores returns the Memory store wired as all three record stores.
func (m *Memory) Stores() Stores {
	return Stores{Users: m, Attempts: m, Sessions: m}
}
