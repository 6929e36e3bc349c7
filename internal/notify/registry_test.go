package notify

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

func TestRegistryDispatchesToEverySubscriber(t *testing.T) {
	r := NewRegistry()
	var calls []string
	offA := r.Subscribe("transaction-added", func(json.RawMessage) { calls = append(calls, "a") })
	r.Subscribe("transaction-added", func(json.RawMessage) { calls = append(calls, "b") })
	r.Subscribe("transaction-deleted", func(json.RawMessage) { calls = append(calls, "c") })

	assert.Equal(t, 2, r.Dispatch("transaction-added", nil))
	assert.Equal(t, []string{"a", "b"}, calls)

	offA()
	offA()
	calls = nil
	assert.Equal(t, 1, r.Dispatch("transaction-added", nil))
	assert.Equal(t, []string{"b"}, calls)
	assert.Equal(t, 1, r.Count("transaction-deleted"))
	assert.Zero(t, r.Dispatch("unknown", nil))
}

func TestRegistryHandlerMayUnsubscribeItself(t *testing.T) {
	r := NewRegistry()
	n := 0
	var off func()
	off = r.Subscribe("joined", func(json.RawMessage) {
		n++
		off()
	})
	r.Dispatch("joined", nil)
	r.Dispatch("joined", nil)
	assert.Equal(t, 1, n)
	assert.Zero(t, r.Count("joined"))
}
