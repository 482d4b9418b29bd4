package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomrelay/internal/broadcast"
)

func TestParseRoomID(t *testing.T) {
	id, err := ParseRoomID("7")
	require.NoError(t, err)
	assert.Equal(t, RoomID(7), id)

	id, err = ParseRoomID("-3")
	require.NoError(t, err)
	assert.Equal(t, RoomID(-3), id)

	for _, bad := range []string{"", "abc", "1.5", "99999999999999999999"} {
		_, err := ParseRoomID(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry(10)

	a := r.Room(1)
	assert.Same(t, a, r.Room(1))
	assert.NotSame(t, a, r.Room(2))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 10, a.Capacity())
}

func TestRegistry_ConcurrentGetOrCreate(t *testing.T) {
	r := NewRegistry(10)

	const workers = 32
	results := make([]*broadcast.Channel[Envelope], workers)
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = r.Room(99)
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_PublishIsScopedToRoom(t *testing.T) {
	r := NewRegistry(10)
	sub1 := r.Room(1).Subscribe()
	defer sub1.Close()
	sub2 := r.Room(2).Subscribe()
	defer sub2.Close()

	assert.Equal(t, 1, r.Publish(1, Envelope{User: "alice", Message: "hi"}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	env, err := sub1.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, Envelope{User: "alice", Message: "hi"}, env)
	assert.Empty(t, sub2.C())
}

func TestCounter(t *testing.T) {
	var c Counter
	assert.Equal(t, uint64(0), c.Load())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Increment()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(1000), c.Load())

	c.Reset()
	assert.Equal(t, uint64(0), c.Load())
}
