package conn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosmez/redisflow/internal/config"
	"github.com/cosmez/redisflow/internal/resp"
	"github.com/cosmez/redisflow/internal/respstub"
	"github.com/cosmez/redisflow/internal/transport"
)

// setupStub connects a Connection to an in-process server answering with h.
func setupStub(t *testing.T, h respstub.Handler) (*Connection, *respstub.Server) {
	t.Helper()
	return setupStubConfig(t, config.Default(), h)
}

func setupStubConfig(t *testing.T, cfg config.Config, h respstub.Handler) (*Connection, *respstub.Server) {
	t.Helper()
	stub := respstub.New(h)
	c, err := Dial(testContext(t), cfg, WithDialFunc(stub.DialContext))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, stub
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDoShapes(t *testing.T) {
	c, _ := setupStub(t, respstub.NewMemory().Handle)
	ctx := testContext(t)

	pong, err := c.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PONG", pong)

	require.NoError(t, c.Set(ctx, "greeting", "hello"))
	s, err := c.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNil)

	b, err := c.GetBytes(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, b)

	n, err := c.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// A bulk reply holding a number converts too.
	n, err = c.Int(ctx, c.Command("GET", "counter"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = c.Int(ctx, c.Command("GET", "missing"))
	assert.ErrorIs(t, err, ErrNil)

	arr, err := c.Array(ctx, c.Command("LRANGE", "nolist", "0", "-1"))
	require.NoError(t, err)
	assert.Empty(t, arr)
}

func TestNullArrayIsNil(t *testing.T) {
	c, _ := setupStub(t, func([]string) string { return respstub.NullArray })
	arr, err := c.Array(testContext(t), c.Command("BLPOP", "q", "1"))
	require.NoError(t, err)
	assert.Nil(t, arr)
}

func TestServerErrorIsReturned(t *testing.T) {
	mem := respstub.NewMemory()
	c, _ := setupStub(t, mem.Handle)
	ctx := testContext(t)

	_, err := c.HSet(ctx, "h", "f", "v")
	require.NoError(t, err)

	_, err = c.Get(ctx, "h")
	var serverErr resp.Error
	require.ErrorAs(t, err, &serverErr)
	assert.Contains(t, serverErr.Message, "WRONGTYPE")
	assert.NotErrorIs(t, err, ErrConnection)

	// The connection is still good.
	_, err = c.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.Stats().ServerErrors)
}

func TestUnexpectedType(t *testing.T) {
	c, _ := setupStub(t, respstub.NewMemory().Handle)
	ctx := testContext(t)

	_, err := c.Int(ctx, c.Command("PING"))
	var typeErr *UnexpectedTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "integer", typeErr.Want)
	assert.Equal(t, resp.SimpleString{Value: "PONG"}, typeErr.Reply)

	_, err = c.Array(ctx, c.Command("PING"))
	require.ErrorAs(t, err, &typeErr)

	_, err = c.String(ctx, c.Command("DBSIZE"))
	require.ErrorAs(t, err, &typeErr)

	// Misuse is local to the caller.
	_, err = c.Ping(ctx)
	assert.NoError(t, err)
}

func TestConcurrentCallersGetTheirOwnReplies(t *testing.T) {
	c, stub := setupStub(t, respstub.NewMemory().Handle)
	ctx := testContext(t)

	const callers = 64
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			want := fmt.Sprintf("caller-%d", i)
			got, err := c.String(ctx, c.Command("ECHO", want))
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()

	assert.Len(t, stub.Requests(), callers)
	st := c.Stats()
	assert.Equal(t, uint64(callers), st.Commands)
	assert.Equal(t, uint64(callers), st.Replies)
	assert.Zero(t, st.Pending)
}

func TestEnumerate(t *testing.T) {
	c, _ := setupStub(t, respstub.NewMemory().Handle)
	ctx := testContext(t)

	batch := resp.Pipeline(
		c.Command("SET", "a", "1"),
		c.Command("INCR", "a"),
		c.Command("HGET", "a", "field"),
		c.Command("GET", "a"),
	)

	var got []resp.Value
	var errs []error
	for v, err := range c.Enumerate(ctx, batch) {
		got = append(got, v)
		errs = append(errs, err)
	}

	require.Len(t, got, 4)
	assert.Equal(t, resp.SimpleString{Value: "OK"}, got[0])
	assert.Equal(t, resp.Integer{Value: 2}, got[1])
	assert.Nil(t, got[2])
	var serverErr resp.Error
	assert.ErrorAs(t, errs[2], &serverErr)
	assert.Equal(t, resp.BulkString{Data: []byte("2")}, got[3])
	assert.NoError(t, errs[3])
}

func TestEnumerateStopsEarly(t *testing.T) {
	c, _ := setupStub(t, respstub.NewMemory().Handle)
	ctx := testContext(t)

	batch := resp.Pipeline(c.Command("PING"), c.Command("PING"), c.Command("PING"))
	n := 0
	for range c.Enumerate(ctx, batch) {
		n++
		break
	}
	assert.Equal(t, 1, n)

	// The unread replies were still consumed by their record.
	_, err := c.Ping(ctx)
	require.NoError(t, err)
}

func TestMultiReplyRecordIsFilledBeforeTheNext(t *testing.T) {
	gate := make(chan struct{})
	c, _ := setupStub(t, func(args []string) string {
		if args[1] == "first" {
			<-gate
		}
		return respstub.Bulk(args[1])
	})
	ctx := testContext(t)

	batchDone := make(chan []string, 1)
	go func() {
		var got []string
		for v, err := range c.Enumerate(ctx, resp.Pipeline(c.Command("ECHO", "first"), c.Command("ECHO", "second"))) {
			assert.NoError(t, err)
			got = append(got, v.StringValue())
		}
		batchDone <- got
	}()
	require.Eventually(t, func() bool { return c.Pending() == 1 }, 2*time.Second, 5*time.Millisecond)

	singleDone := make(chan string, 1)
	go func() {
		s, err := c.String(ctx, c.Command("ECHO", "third"))
		assert.NoError(t, err)
		singleDone <- s
	}()
	require.Eventually(t, func() bool { return c.Pending() == 2 }, 2*time.Second, 5*time.Millisecond)

	close(gate)
	assert.Equal(t, []string{"first", "second"}, <-batchDone)
	assert.Equal(t, "third", <-singleDone)
}

func TestPendingCallersFailOnConnectionLoss(t *testing.T) {
	c, stub := setupStub(t, func(args []string) string {
		if args[0] == "BLOCK" {
			return "" // never answered
		}
		return respstub.OK
	})
	ctx := testContext(t)

	const k = 8
	errs := make(chan error, k)
	for i := 0; i < k; i++ {
		go func() {
			_, err := c.Do(ctx, c.Command("BLOCK"))
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return c.Pending() == k }, 2*time.Second, 5*time.Millisecond)

	stub.Kill()

	for i := 0; i < k; i++ {
		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrConnection)
			var cerr *transport.ConnectionError
			assert.ErrorAs(t, err, &cerr)
		case <-time.After(2 * time.Second):
			t.Fatalf("caller %d still blocked", i)
		}
	}

	_, err := c.Ping(ctx)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Equal(t, err, c.Err())
	assert.Equal(t, uint64(1), c.Stats().ConnectionErrors)
	assert.Zero(t, c.Pending())
}

func TestServerDropsConnection(t *testing.T) {
	c, stub := setupStub(t, respstub.NewMemory().Handle)
	stub.DropAfter(2)
	ctx := testContext(t)

	_, err := c.Ping(ctx)
	require.NoError(t, err)
	_, err = c.Ping(ctx)
	require.NoError(t, err)
	_, err = c.Ping(ctx)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestCancelledCallerKeepsPairing(t *testing.T) {
	gate := make(chan struct{})
	c, _ := setupStub(t, func(args []string) string {
		switch args[0] {
		case "SLOW":
			<-gate
			return respstub.Simple("late")
		case "ECHO":
			return respstub.Bulk(args[1])
		}
		return respstub.Error("ERR unknown")
	})

	short, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.Do(short, c.Command("SLOW"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, c.Pending())

	ctx := testContext(t)
	done := make(chan string, 1)
	go func() {
		s, err := c.String(ctx, c.Command("ECHO", "mine"))
		assert.NoError(t, err)
		done <- s
	}()
	close(gate)

	select {
	case s := <-done:
		assert.Equal(t, "mine", s)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never answered")
	}
}

func TestEmptyCommandIsRejected(t *testing.T) {
	mem := respstub.NewMemory()
	c, stub := setupStub(t, mem.Handle)
	ctx := testContext(t)

	require.NoError(t, c.Set(ctx, "a", "1"))
	require.NoError(t, c.Set(ctx, "b", "2"))
	sent := len(stub.Requests())

	for _, cmd := range []*resp.Command{resp.Pipeline(), nil, resp.RawCommandString("")} {
		_, err := c.Do(ctx, cmd)
		assert.ErrorIs(t, err, ErrEmptyCommand)
	}
	assert.Equal(t, 0, c.Pending())
	assert.Len(t, stub.Requests(), sent)

	a, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", a)
	b, err := c.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", b)
}

func TestClosePendingCallers(t *testing.T) {
	c, _ := setupStub(t, func([]string) string { return "" })
	ctx := testContext(t)

	errs := make(chan error, 1)
	go func() {
		_, err := c.Do(ctx, c.Command("BLOCK"))
		errs <- err
	}()
	require.Eventually(t, func() bool { return c.Pending() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	err := <-errs
	assert.ErrorIs(t, err, transport.ErrClosed)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Zero(t, c.Stats().ConnectionErrors)
}

func TestDialFailure(t *testing.T) {
	stub := respstub.New(respstub.NewMemory().Handle).FailDial(errors.New("connection refused"))
	_, err := Dial(testContext(t), config.Default(), WithDialFunc(stub.DialContext))
	assert.ErrorIs(t, err, ErrConnection)
	assert.Contains(t, err.Error(), "127.0.0.1:6379")
}

func TestLazyConnect(t *testing.T) {
	stub := respstub.New(respstub.NewMemory().Handle)
	c, err := New(config.Default(), WithDialFunc(stub.DialContext))
	require.NoError(t, err)
	defer c.Close()

	assert.Zero(t, stub.Dials())
	_, err = c.Ping(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, 1, stub.Dials())
}

func TestAuthenticatedConnection(t *testing.T) {
	mem := respstub.NewMemory()
	mem.Password = "pw"
	cfg := config.Default()
	cfg.Password = "pw"

	c, stub := setupStubConfig(t, cfg, mem.Handle)
	pong, err := c.Ping(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, "PONG", pong)
	assert.Equal(t, []string{"AUTH", "pw"}, stub.Requests()[0])
	// The AUTH reply never reached a caller.
	assert.Equal(t, uint64(1), c.Stats().Replies)
}

func TestCharsetDecoding(t *testing.T) {
	cfg := config.Default()
	mem := respstub.NewMemory()
	c, _ := setupStubConfig(t, cfg, mem.Handle)
	ctx := testContext(t)

	require.NoError(t, c.Set(ctx, "k", "café"))
	raw, err := c.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("caf\xe9"), raw)

	s, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "café", s)

	cfg.Encoding = "utf-8"
	u, _ := setupStubConfig(t, cfg, mem.Handle)
	require.NoError(t, u.Set(ctx, "k", "café"))
	raw, err = u.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("café"), raw)
}
