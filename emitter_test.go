package tinyflag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitter_OnEmitOff(t *testing.T) {
	em := NewEmitter()

	var got []any
	id := em.On("change", func(args ...any) { got = append(got, args...) })
	em.On("other", func(args ...any) { t.Error("wrong event delivered") })

	em.Emit("change", "flag-a", true)
	assert.Equal(t, []any{"flag-a", true}, got)
	assert.Equal(t, 1, em.Count("change"))

	em.Off("change", id)
	em.Emit("change", "flag-b")
	assert.Equal(t, []any{"flag-a", true}, got)
	assert.Equal(t, 0, em.Count("change"))
}

func TestEmitter_OrderAndUniqueIDs(t *testing.T) {
	em := NewEmitter()

	var order []int
	a := em.On("e", func(...any) { order = append(order, 1) })
	b := em.On("e", func(...any) { order = append(order, 2) })
	assert.NotEqual(t, a, b)

	em.Emit("e")
	assert.Equal(t, []int{1, 2}, order)
}

func TestEmitter_OffDuringEmit(t *testing.T) {
	em := NewEmitter()

	calls := 0
	var id ListenerID
	id = em.On("once", func(...any) {
		calls++
		em.Off("once", id)
	})

	em.Emit("once")
	em.Emit("once")
	assert.Equal(t, 1, calls)
}

func TestEmitter_OffUnknown(t *testing.T) {
	em := NewEmitter()
	assert.NotPanics(t, func() {
		em.Off("missing", 42)
	})
}
