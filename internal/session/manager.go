package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vstoleru/storefront/internal/user"
)

const cleanupInterval = time.Minute

// Session — текущая аутентифицированная личность. Живёт только в
// памяти процесса: перезапуск сбрасывает все сессии.
type Session struct {
	Token     string
	UserID    int64
	UserName  string
	Email     string
	Role      user.Role
	ExpiresAt time.Time
}

// Manager владеет жизненным циклом сессий: создание при успешной
// проверке кода, уничтожение при logout, фоновая зачистка протухших.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewManager(ttl time.Duration) *Manager {
	m := &Manager{
		sessions:    make(map[string]Session),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.expireSessions()
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *Manager) expireSessions() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for token, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, token)
			log.Debug().Int64("user_id", s.UserID).Msg("session expired")
		}
	}
}

func (m *Manager) Create(u *user.User) (Session, error) {
	token, err := uuid.NewV4()
	if err != nil {
		return Session{}, fmt.Errorf("session: failed to generate token: %w", err)
	}

	s := Session{
		Token:     token.String(),
		UserID:    u.ID,
		UserName:  u.Name,
		Email:     u.Email,
		Role:      u.Role,
		ExpiresAt: time.Now().Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[s.Token] = s
	m.mu.Unlock()

	return s, nil
}

// Get возвращает сессию по токену; протухшая сессия не возвращается,
// даже если фоновая зачистка до неё ещё не дошла.
func (m *Manager) Get(token string) (Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[token]
	m.mu.RUnlock()

	if !ok || time.Now().After(s.ExpiresAt) {
		return Session{}, false
	}
	return s, true
}

func (m *Manager) Destroy(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// Stop останавливает фоновую зачистку.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	m.wg.Wait()
}
