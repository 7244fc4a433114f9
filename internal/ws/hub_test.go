package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendToUserDelivers(t *testing.T) {
	h := NewHub()
	c := &Client{UserID: 7, Send: make(chan []byte, 1)}
	h.Register(c)

	h.SendToUser(7, map[string]string{"kind": "test"})
	require.Len(t, c.Send, 1)

	// Unknown users and full buffers are silent drops.
	h.SendToUser(99, map[string]string{"kind": "test"})
	h.SendToUser(7, map[string]string{"kind": "dropped"})
	require.Len(t, c.Send, 1)

	c.Close()
	require.Equal(t, 0, h.ClientCount())
}

func TestSendRacingCloseDoesNotPanic(t *testing.T) {
	h := NewHub()
	c := &Client{UserID: 9, Send: make(chan []byte, 1)}
	h.Register(c)

	// A disconnect landing mid-broadcast must not take the sender down.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			h.SendToUser(9, map[string]int{"seq": i})
		}
	}()
	go func() {
		defer wg.Done()
		c.Close()
	}()
	wg.Wait()

	// Close is idempotent.
	c.Close()
	require.Equal(t, 0, h.ClientCount())
}
