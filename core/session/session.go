package session

import (
	"sync"
)

// Source is the read side of the auth collaborator.
type Source interface {
	// CurrentUserID returns the signed-in user, if any.
	CurrentUserID() (string, bool)
	// OnChange registers fn to run after every sign-in, sign-out or user switch.
	// fn receives the new user id, empty after sign-out.
	OnChange(fn func(userID string)) (cancel func())
}

// Manager is an in-process session holder.
type Manager struct {
	mu        sync.RWMutex
	userID    string
	nextID    int
	listeners map[int]func(string)
	order     []int
}

// NewManager creates a signed-out session.
func NewManager() *Manager {
	return &Manager{listeners: make(map[int]func(string))}
}

// CurrentUserID returns the signed-in user.
func (m *Manager) CurrentUserID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID, m.userID != ""
}

// SignIn switches the session to userID. Listeners run only on a real change.
func (m *Manager) SignIn(userID string) {
	m.set(userID)
}

// SignOut clears the session.
func (m *Manager) SignOut() {
	m.set("")
}

// OnChange registers fn. Listeners run synchronously in registration order.
func (m *Manager) OnChange(fn func(userID string)) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.order = append(m.order, id)
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			for i, v := range m.order {
				if v == id {
					m.order = append(m.order[:i], m.order[i+1:]...)
					break
				}
			}
			m.mu.Unlock()
		})
	}
}

func (m *Manager) set(userID string) {
	m.mu.Lock()
	if m.userID == userID {
		m.mu.Unlock()
		return
	}
	m.userID = userID
	fns := make([]func(string), 0, len(m.order))
	for _, id := range m.order {
		fns = append(fns, m.listeners[id])
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(userID)
	}
}
