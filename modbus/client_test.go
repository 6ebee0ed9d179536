package modbus

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/go-serialscope/stream"
)

// fakeLine is a serial line with a scripted slave on the other end. Every
// write is recorded and answered by respond, one chunk per gap.
type fakeLine struct {
	rx      chan []byte
	gap     time.Duration
	respond func(n int, adu []byte) [][]byte

	mu     sync.Mutex
	writes [][]byte
}

func newFakeLine(respond func(n int, adu []byte) [][]byte) *fakeLine {
	return &fakeLine{rx: make(chan []byte, 64), gap: 10 * time.Millisecond, respond: respond}
}

func (l *fakeLine) Read(p []byte) (int, error) {
	b, ok := <-l.rx
	if !ok {
		return 0, io.EOF
	}
	return copy(p, b), nil
}

func (l *fakeLine) ReadContext(ctx context.Context, p []byte) (int, error) {
	select {
	case b, ok := <-l.rx:
		if !ok {
			return 0, io.EOF
		}
		return copy(p, b), nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (l *fakeLine) Write(p []byte) (int, error) {
	l.mu.Lock()
	l.writes = append(l.writes, append([]byte(nil), p...))
	n := len(l.writes)
	l.mu.Unlock()

	if l.respond != nil {
		chunks := l.respond(n, p)
		go func() {
			for _, c := range chunks {
				time.Sleep(l.gap)
				l.rx <- c
			}
		}()
	}
	return len(p), nil
}

func (l *fakeLine) writeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.writes)
}

func registersReply(values ...byte) []byte {
	return Encode(NewRequest(1, ReadHoldingRegisters, append([]byte{byte(len(values))}, values...)))
}

func newTestClient(t *testing.T, line *fakeLine, opts ...Option) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), line, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientDo(t *testing.T) {
	t.Parallel()

	line := newFakeLine(func(int, []byte) [][]byte {
		return [][]byte{registersReply(0x00, 0x2A)}
	})
	c := newTestClient(t, line, WithTimeout(time.Second))

	resp, err := c.Do(context.Background(), readOne(t))
	require.NoError(t, err)
	regs, err := resp.Registers()
	require.NoError(t, err)
	assert.Equal(t, []uint16{42}, regs)
	assert.Equal(t, stream.RX, resp.Frame.Direction())
	assert.Equal(t, 1, line.writeCount())
}

func TestClientJoinsChunksOfOneFrame(t *testing.T) {
	t.Parallel()

	reply := registersReply(0x12, 0x34, 0x56, 0x78)
	line := newFakeLine(func(int, []byte) [][]byte {
		return [][]byte{reply[:3], reply[3:]}
	})
	line.gap = time.Millisecond
	c := newTestClient(t, line, WithSilence(20*time.Millisecond))

	resp, err := c.Do(context.Background(), readOne(t))
	require.NoError(t, err)
	regs, err := resp.Registers()
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x1234, 0x5678}, regs)
}

func TestClientSkipsNoise(t *testing.T) {
	t.Parallel()

	corrupt := registersReply(0x00, 0x01)
	corrupt[3] ^= 0x40
	line := newFakeLine(func(int, []byte) [][]byte {
		return [][]byte{corrupt, registersReply(0x00, 0x02)}
	})
	line.gap = 30 * time.Millisecond
	c := newTestClient(t, line, WithTimeout(time.Second))

	resp, err := c.Do(context.Background(), readOne(t))
	require.NoError(t, err)
	regs, err := resp.Registers()
	require.NoError(t, err)
	assert.Equal(t, []uint16{2}, regs)
	assert.Equal(t, uint64(1), c.Counters().Get(CntCRCErrors))
}

func TestClientRetries(t *testing.T) {
	t.Parallel()

	line := newFakeLine(func(n int, _ []byte) [][]byte {
		if n < 3 {
			return nil
		}
		return [][]byte{registersReply(0x00, 0x07)}
	})
	c := newTestClient(t, line, WithTimeout(50*time.Millisecond), WithRetries(3))

	resp, err := c.Do(context.Background(), readOne(t))
	require.NoError(t, err)
	assert.Equal(t, Ok, resp.Validity)
	assert.Equal(t, 3, line.writeCount())
	assert.Equal(t, uint64(2), c.Counters().Get(CntRetries))
}

func TestClientTimeout(t *testing.T) {
	t.Parallel()

	line := newFakeLine(nil)
	c := newTestClient(t, line, WithTimeout(20*time.Millisecond), WithRetries(1))

	resp, err := c.Do(context.Background(), readOne(t))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, Timeout, resp.Validity)
	assert.Equal(t, 2, line.writeCount())
}

func TestClientException(t *testing.T) {
	t.Parallel()

	line := newFakeLine(func(int, []byte) [][]byte {
		return [][]byte{Encode(NewRequest(1, ReadHoldingRegisters|ExceptionFlag, []byte{byte(ServerDeviceBusy)}))}
	})
	c := newTestClient(t, line)

	resp, err := c.Do(context.Background(), readOne(t))
	require.NoError(t, err)
	var exc *ExceptionError
	require.ErrorAs(t, resp.Err(), &exc)
	assert.Equal(t, ServerDeviceBusy, exc.Code)
}

func TestClientBusyAndCancel(t *testing.T) {
	t.Parallel()

	line := newFakeLine(nil)
	c := newTestClient(t, line, WithTimeout(10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	req := readOne(t)
	errc := make(chan error, 1)
	go func() {
		_, err := c.Do(ctx, req)
		errc <- err
	}()

	require.Eventually(t, func() bool { return line.writeCount() == 1 }, time.Second, time.Millisecond)

	_, err := c.Do(context.Background(), req)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 1, line.writeCount())

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrCancelled)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancel")
	}
	assert.Equal(t, uint64(1), c.Counters().Get(CntCancelled))
}

func TestClientObserver(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		events []Event
	)
	line := newFakeLine(func(int, []byte) [][]byte {
		return [][]byte{registersReply(0x00, 0x01)}
	})
	c := newTestClient(t, line, WithObserver(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	}))

	req := readOne(t)
	_, err := c.Do(context.Background(), req)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 2)
	assert.Equal(t, stream.TX, events[0].Frame.Direction())
	assert.Equal(t, Encode(req), events[0].Frame.Bytes())
	assert.Equal(t, 1, events[0].Attempt)
	assert.Nil(t, events[0].Response)
	assert.Equal(t, stream.RX, events[1].Frame.Direction())
	require.NotNil(t, events[1].Response)
	assert.Equal(t, Ok, events[1].Response.Validity)
}

func TestClientBroadcast(t *testing.T) {
	t.Parallel()

	line := newFakeLine(nil)
	c := newTestClient(t, line)

	resp, err := c.Do(context.Background(), NewWriteSingleRegister(BroadcastAddress, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, Ok, resp.Validity)
	assert.Equal(t, 1, line.writeCount())
}

func TestClientClosed(t *testing.T) {
	t.Parallel()

	line := newFakeLine(nil)
	c, err := NewClient(context.Background(), line)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.Do(context.Background(), readOne(t))
	assert.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, line.writeCount())
}

func TestClientWithOffsetClock(t *testing.T) {
	t.Parallel()

	base := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)
	start := time.Now()
	line := newFakeLine(func(int, []byte) [][]byte {
		return [][]byte{registersReply(0x00, 0x2A)}
	})
	c := newTestClient(t, line,
		WithClock(func() time.Time { return base.Add(time.Since(start)) }),
		WithTimeout(300*time.Millisecond),
		WithRetries(0),
	)

	resp, err := c.Do(context.Background(), readOne(t))
	require.NoError(t, err)
	assert.Equal(t, Ok, resp.Validity)
	assert.True(t, resp.Frame.Timestamp().After(base), "frame stamped on the client clock")
	regs, err := resp.Registers()
	require.NoError(t, err)
	assert.Equal(t, []uint16{42}, regs)
}

func TestClientWaitPastDeadline(t *testing.T) {
	t.Parallel()

	var (
		mu  sync.Mutex
		now = time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)
	)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	silence := 5 * time.Millisecond
	c := newTestClient(t, newFakeLine(nil),
		WithClock(clock),
		WithTimeout(100*time.Millisecond),
		WithSilence(silence),
	)
	require.NoError(t, c.mgr.Submit(readOne(t), clock()))

	advance(150 * time.Millisecond)
	assert.Equal(t, time.Millisecond, c.wait(), "expired attempt with nothing arriving is due now")

	c.buf.Feed([]byte{0x01, 0x03}, stream.RX, clock())
	assert.Equal(t, silence, c.wait(), "a frame arriving past the deadline is polled at its boundary")

	deadline, ok := c.mgr.Deadline()
	require.True(t, ok)
	advance(deadline.Add(c.grace).Sub(clock()) - 3*time.Millisecond)
	c.buf.Feed([]byte{0x02}, stream.RX, clock())
	assert.Equal(t, 3*time.Millisecond, c.wait(), "the grace period caps the wait")
}
