package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessions(t *testing.T) {
	var observed []int
	sessions := NewSessions(WithActiveObserver(func(n int) { observed = append(observed, n) }))

	a := sessions.ForSession("session-a")
	b := sessions.ForSession("session-b")
	assert.Same(t, a, sessions.ForSession("session-a"))
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, sessions.Active())

	token := a.TokenizeAccount("Chase Checking", "Chase Bank")
	_, ok := b.ReverseLookup(token)
	assert.False(t, ok, "registries are isolated per session")

	assert.True(t, sessions.End("session-a"))
	assert.False(t, sessions.End("session-a"))
	assert.Equal(t, 0, a.Len(), "ended registry is cleared")
	assert.Equal(t, 1, sessions.Active())

	fresh := sessions.ForSession("session-a")
	assert.NotSame(t, a, fresh)
	_, ok = fresh.ReverseLookup(token)
	assert.False(t, ok)

	assert.Equal(t, []int{1, 2, 1, 2}, observed)
}
