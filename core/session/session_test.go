package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager(t *testing.T) {
	m := NewManager()

	_, ok := m.CurrentUserID()
	assert.False(t, ok)

	var seen []string
	cancel := m.OnChange(func(uid string) { seen = append(seen, "a:"+uid) })
	m.OnChange(func(uid string) { seen = append(seen, "b:"+uid) })

	m.SignIn("u1")
	m.SignIn("u1") // no change, no notification
	uid, ok := m.CurrentUserID()
	assert.True(t, ok)
	assert.Equal(t, "u1", uid)

	cancel()
	cancel()
	m.SignOut()

	assert.Equal(t, []string{"a:u1", "b:u1", "b:"}, seen)
	_, ok = m.CurrentUserID()
	assert.False(t, ok)
}
