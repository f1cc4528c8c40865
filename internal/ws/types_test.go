package ws

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingConn struct {
	active  int32
	writes  int32
	overlap int32
}

func (c *countingConn) WriteJSON(v interface{}) error {
	if atomic.AddInt32(&c.active, 1) > 1 {
		atomic.StoreInt32(&c.overlap, 1)
	}
	time.Sleep(100 * time.Microsecond)
	atomic.AddInt32(&c.writes, 1)
	atomic.AddInt32(&c.active, -1)
	return nil
}

func (c *countingConn) WriteMessage(int, []byte) error { return nil }
func (c *countingConn) Close() error                   { return nil }

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage(MessageTypeError, map[string]string{"error": "boom"})
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"type":"error","payload":{"error":"boom"}}` {
		t.Fatalf("unexpected encoding %s", raw)
	}
}

func TestSyncConnSerializesWrites(t *testing.T) {
	inner := &countingConn{}
	conn := NewSyncConn(inner)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = conn.WriteJSON(Message{Type: MessageTypeGameState})
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&inner.writes); got != 32 {
		t.Fatalf("expected 32 writes, got %d", got)
	}
	if atomic.LoadInt32(&inner.overlap) != 0 {
		t.Fatalf("saw concurrent writes on the underlying connection")
	}
}
