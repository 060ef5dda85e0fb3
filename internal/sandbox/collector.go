package sandbox

import (
	"bytes"
	"sync"
)

// cappedBuffer accumulates one output stream up to a fixed byte cap.
//
// os/exec drains each pipe into its writer from a dedicated goroutine and
// cmd.Wait does not return until both copies finish, so draining is
// continuous from the child's point of view and nothing is appended after
// termination. Writes always report full success so the child is never
// stalled or broken by a full buffer — excess bytes are silently dropped
// and the truncated flag is set.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	cap       int
	truncated bool

	stream Stream
	obs    Observer
}

func newCappedBuffer(capBytes int, stream Stream, obs Observer) *cappedBuffer {
	return &cappedBuffer{cap: capBytes, stream: stream, obs: obs}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	remaining := b.cap - b.buf.Len()
	chunk := p
	if len(chunk) > remaining {
		chunk = chunk[:remaining]
		b.truncated = true
	}
	if len(chunk) > 0 {
		b.buf.Write(chunk)
		if b.obs != nil {
			b.obs.Chunk(b.stream, chunk)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *cappedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}
