// Package transport owns the socket to one server: it dials, authenticates,
// writes queued request frames from a send goroutine and feeds everything it
// reads into a resp.Decoder from a receive goroutine.
//
// It knows nothing about which caller a reply belongs to. Replies and the
// first fatal error are handed to Handlers in the order they happen.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cosmez/redisflow/internal/config"
	"github.com/cosmez/redisflow/internal/resp"
)

var (
	// ErrConnection matches every *ConnectionError through errors.Is.
	ErrConnection = errors.New("connection error")

	// ErrClosed is the cause reported after Close.
	ErrClosed = errors.New("connection closed")
)

// ConnectionError is the single fatal error of a Transport. Op names the
// stage that failed: "dial", "auth", "read", "write", "decode" or "close".
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// Handlers receive the output of the receive goroutine. OnReply is called for
// every top-level reply in wire order. OnError is called exactly once.
type Handlers struct {
	OnReply func(resp.Value)
	OnError func(error)
}

// DialFunc opens the underlying connection.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Option configures a Transport.
type Option func(*Transport)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.log = l
		}
	}
}

// WithDialFunc replaces net.Dialer, mostly for tests.
func WithDialFunc(dial DialFunc) Option {
	return func(t *Transport) {
		if dial != nil {
			t.dial = dial
		}
	}
}

// Transport is safe for concurrent use.
type Transport struct {
	cfg  config.Config
	h    Handlers
	log  *zap.Logger
	dial DialFunc
	enc  *resp.Encoder

	connectOnce sync.Once
	connected   chan struct{} // closed when the connect attempt has finished

	// skip counts replies to discard before OnReply sees anything. Written
	// before the receive goroutine starts, owned by it afterwards.
	skip int

	mu      sync.Mutex
	conn    net.Conn
	queue   []*resp.Command
	err     error
	cancel  context.CancelFunc
	stopped chan struct{}

	wake     chan struct{}
	failOnce sync.Once
	failed   chan struct{}
	closeErr error
}

// New validates cfg and returns an unconnected Transport.
func New(cfg config.Config, h Handlers, opts ...Option) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	charset, err := cfg.Charset()
	if err != nil {
		return nil, err
	}

	t := &Transport{
		cfg:       cfg,
		h:         h,
		log:       zap.NewNop(),
		dial:      (&net.Dialer{}).DialContext,
		enc:       resp.NewEncoder(charset),
		connected: make(chan struct{}),
		wake:      make(chan struct{}, 1),
		failed:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.With(zap.String("addr", cfg.Addr()))
	return t, nil
}

// Connect starts the connection attempt if none has been made and waits for
// it. The attempt itself is bounded by the configured connect timeout; ctx
// only bounds how long this caller waits. After Close nothing is dialed.
func (t *Transport) Connect(ctx context.Context) error {
	if err := t.Err(); err != nil {
		return err
	}
	t.connectOnce.Do(func() { go t.connect() })

	select {
	case <-t.connected:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Transport) connect() {
	defer close(t.connected)

	dctx, cancel := context.WithTimeout(context.Background(), t.cfg.ConnectTimeout)
	defer cancel()

	t.log.Debug("dialing", zap.Duration("timeout", t.cfg.ConnectTimeout))
	c, err := t.dial(dctx, "tcp", t.cfg.Addr())
	if err != nil {
		t.fail(&ConnectionError{Op: "dial", Err: err})
		return
	}

	if t.cfg.Password != "" {
		if err := t.authenticate(dctx, c); err != nil {
			_ = c.Close()
			t.fail(&ConnectionError{Op: "auth", Err: err})
			return
		}
	}

	ctx, stop := context.WithCancel(context.Background())
	t.mu.Lock()
	if t.err != nil {
		// Closed while dialing.
		t.mu.Unlock()
		stop()
		_ = c.Close()
		return
	}
	t.conn = c
	t.cancel = stop
	t.stopped = make(chan struct{})
	t.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return t.receiveLoop(c) })
	g.Go(func() error { return t.sendLoop(gctx, c) })
	g.Go(func() error {
		// Unblocks the reader once either loop has failed.
		<-gctx.Done()
		_ = c.Close()
		return nil
	})

	stopped := t.stopped
	go func() {
		defer close(stopped)
		if err := g.Wait(); err != nil {
			t.fail(err)
		}
	}()

	t.log.Debug("connected", zap.Bool("auth", t.cfg.Password != ""))
}

// authenticate writes AUTH before any queued request. The reply is not read
// here: the receive goroutine drops the first reply it decodes.
func (t *Transport) authenticate(ctx context.Context, c net.Conn) error {
	args := []string{t.cfg.Password}
	if t.cfg.Username != "" {
		args = []string{t.cfg.Username, t.cfg.Password}
	}
	cmd := t.enc.Command("AUTH", args...)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.SetWriteDeadline(deadline); err != nil {
			return err
		}
		defer c.SetWriteDeadline(time.Time{})
	}
	if _, err := cmd.WriteTo(c); err != nil {
		return err
	}
	t.skip = 1
	return nil
}

// Send queues cmd for the send goroutine. It waits for the connect attempt
// but never for the write itself.
func (t *Transport) Send(cmd *resp.Command) error {
	if err := t.Connect(context.Background()); err != nil {
		return err
	}

	t.mu.Lock()
	if t.err != nil {
		err := t.err
		t.mu.Unlock()
		return err
	}
	t.queue = append(t.queue, cmd)
	t.mu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
	return nil
}

func (t *Transport) sendLoop(ctx context.Context, c net.Conn) error {
	var buf []byte
	for {
		t.mu.Lock()
		batch := t.queue
		t.queue = nil
		t.mu.Unlock()

		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-t.wake:
				continue
			}
		}

		buf = buf[:0]
		for _, cmd := range batch {
			buf = cmd.AppendTo(buf)
		}
		if _, err := c.Write(buf); err != nil {
			return &ConnectionError{Op: "write", Err: err}
		}
		t.log.Debug("wrote batch", zap.Int("commands", len(batch)), zap.Int("bytes", len(buf)))
	}
}

func (t *Transport) receiveLoop(c net.Conn) error {
	dec := resp.NewDecoder(t.deliver)
	for {
		if _, err := dec.ReadOnce(c); err != nil {
			var perr *resp.ProtocolError
			if errors.As(err, &perr) {
				return &ConnectionError{Op: "decode", Err: err}
			}
			return &ConnectionError{Op: "read", Err: err}
		}
	}
}

// deliver drops the first reply after AUTH. It assumes the server sends
// nothing unsolicited before answering AUTH; if it did, the wrong frame would
// be dropped and every later reply would shift by one.
func (t *Transport) deliver(v resp.Value) {
	if t.skip > 0 {
		t.skip--
		if e, ok := v.(resp.Error); ok {
			t.log.Warn("AUTH rejected", zap.String("reply", e.Message))
		}
		return
	}
	if t.h.OnReply != nil {
		t.h.OnReply(v)
	}
}

// fail records err as the transport's fatal error, tears the connection
// down and notifies OnError. Only the first call has any effect.
func (t *Transport) fail(err error) {
	t.failOnce.Do(func() {
		t.mu.Lock()
		t.err = err
		t.queue = nil
		conn, cancel := t.conn, t.cancel
		t.mu.Unlock()

		close(t.failed)
		if cancel != nil {
			cancel()
		}
		if conn != nil {
			if cerr := conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
				t.closeErr = cerr
			}
		}

		if errors.Is(err, ErrClosed) {
			t.log.Debug("closed")
		} else {
			var perr *resp.ProtocolError
			if errors.As(err, &perr) {
				t.log.Error("protocol violation", zap.Error(err))
			} else {
				t.log.Warn("connection failed", zap.Error(err))
			}
		}

		if t.h.OnError != nil {
			t.h.OnError(err)
		}
	})
}

// Done is closed once the transport has failed or been closed.
func (t *Transport) Done() <-chan struct{} { return t.failed }

// Err returns the fatal error, or nil while the transport is healthy.
func (t *Transport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Close fails every later Send with ErrClosed and waits for the loops to
// exit. It is safe to call more than once.
func (t *Transport) Close() error {
	t.fail(&ConnectionError{Op: "close", Err: ErrClosed})

	t.mu.Lock()
	stopped := t.stopped
	t.mu.Unlock()
	if stopped != nil {
		<-stopped
	}
	return t.closeErr
}
