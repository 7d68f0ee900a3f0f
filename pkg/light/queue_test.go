package light

import (
	"testing"
	"time"

	"github.com/edgelight/edgelight-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendQueuePushEvictsOldest(t *testing.T) {
	q := newSendQueue(2)

	_, evicted := q.push(request{0, wire.SetOnOff(true)})
	assert.False(t, evicted)
	_, evicted = q.push(request{1, wire.SetOnOff(true)})
	assert.False(t, evicted)

	old, evicted := q.push(request{2, wire.SetOnOff(false)})
	require.True(t, evicted)
	assert.Equal(t, 0, old.index)
	assert.Equal(t, 2, q.size())
	assert.Equal(t, 1, q.droppedCount())

	r, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, 1, r.index)
	r, ok = q.pop()
	require.True(t, ok)
	assert.Equal(t, 2, r.index)
}

func TestSendQueueCloseUnblocksPop(t *testing.T) {
	q := newSendQueue(4)
	done := make(chan bool)
	go func() {
		_, ok := q.pop()
		done <- ok
	}()

	q.close()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("pop did not return after close")
	}

	_, evicted := q.push(request{0, wire.SetOnOff(true)})
	assert.False(t, evicted)
	assert.Equal(t, 0, q.size(), "closed queue accepts nothing")
}

func TestSendQueueWaitReturnsWhenIdle(t *testing.T) {
	q := newSendQueue(4)
	q.push(request{0, wire.SetOnOff(true)})
	q.push(request{1, wire.SetOnOff(true)})

	var handled []int
	go func() {
		for {
			r, ok := q.pop()
			if !ok {
				return
			}
			handled = append(handled, r.index)
		}
	}()

	q.wait()
	assert.Equal(t, []int{0, 1}, handled)
	q.close()
}
