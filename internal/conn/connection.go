// Package conn is the client facade: it pairs every request with its replies
// over one pipelined connection and converts them to the shape the caller
// asked for.
package conn

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"github.com/cosmez/redisflow/internal/config"
	"github.com/cosmez/redisflow/internal/resp"
	"github.com/cosmez/redisflow/internal/transport"
)

var (
	// ErrNil is returned by String and Int when the reply is an absent bulk
	// string.
	ErrNil = errors.New("conn: nil reply")

	// ErrConnection matches every connection-level failure.
	ErrConnection = transport.ErrConnection

	// ErrEmptyCommand is returned for a nil command or one that expects no
	// reply. Nothing is queued or sent.
	ErrEmptyCommand = errors.New("conn: command expects no reply")
)

// UnexpectedTypeError means the reply exists but cannot be converted to the
// requested shape. Only the caller that asked sees it.
type UnexpectedTypeError struct {
	Want  string
	Reply resp.Value
}

func (e *UnexpectedTypeError) Error() string {
	return fmt.Sprintf("conn: unexpected %s reply, want %s", e.Reply.Type(), e.Want)
}

// pending is one request waiting for its replies. It is only touched under
// Connection.mu until done is closed.
type pending struct {
	done    chan struct{}
	expect  int
	replies []resp.Value
	err     error
}

// Option configures a Connection.
type Option func(*options)

type options struct {
	log  *zap.Logger
	dial transport.DialFunc
}

// WithLogger sets the logger shared by the connection and its transport.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithDialFunc replaces the dialer.
func WithDialFunc(dial transport.DialFunc) Option {
	return func(o *options) { o.dial = dial }
}

// Connection multiplexes any number of concurrent callers onto a single
// server connection. Replies are matched to requests strictly in the order
// the requests were queued.
type Connection struct {
	cfg     config.Config
	enc     *resp.Encoder
	charset encoding.Encoding
	t       *transport.Transport
	log     *zap.Logger
	stats   statsCollector

	mu    sync.Mutex
	queue []*pending
	err   error
}

// New returns a Connection that dials on first use.
func New(cfg config.Config, opts ...Option) (*Connection, error) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}

	charset, err := cfg.Charset()
	if err != nil {
		return nil, err
	}

	c := &Connection{
		cfg:     cfg,
		enc:     resp.NewEncoder(charset),
		charset: charset,
		log:     o.log,
	}
	t, err := transport.New(cfg, transport.Handlers{
		OnReply: c.onReply,
		OnError: c.onError,
	}, transport.WithLogger(o.log), transport.WithDialFunc(o.dial))
	if err != nil {
		return nil, err
	}
	c.t = t
	return c, nil
}

// Dial returns a connected Connection.
func Dial(ctx context.Context, cfg config.Config, opts ...Option) (*Connection, error) {
	c, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.t.Connect(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Addr(), err)
	}
	c.log.Info("connected", zap.String("addr", cfg.Addr()))
	return c, nil
}

// Config returns the settings the connection was created with.
func (c *Connection) Config() config.Config { return c.cfg }

// Encoder returns the encoder bound to the connection's charset.
func (c *Connection) Encoder() *resp.Encoder { return c.enc }

// Command encodes name and args with the connection's charset.
func (c *Connection) Command(name string, args ...string) *resp.Command {
	return c.enc.Command(name, args...)
}

// Close shuts the connection down. Callers still waiting get an error.
func (c *Connection) Close() error {
	return c.t.Close()
}

// Err returns the connection's fatal error, if it has failed.
func (c *Connection) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Pending returns the number of requests still waiting for replies,
// including abandoned ones.
func (c *Connection) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// roundTrip queues cmd and waits for all of its replies.
//
// If ctx ends first the caller gets ctx.Err() but the record stays in the
// queue, so the replies still pair up with the right requests.
func (c *Connection) roundTrip(ctx context.Context, cmd *resp.Command) ([]resp.Value, error) {
	if cmd == nil || cmd.Replies() < 1 || cmd.Len() == 0 {
		return nil, ErrEmptyCommand
	}
	// Connect outside the lock: a failed dial reports through onError, which
	// needs c.mu.
	if err := c.t.Connect(ctx); err != nil {
		return nil, err
	}

	p := &pending{done: make(chan struct{}), expect: cmd.Replies()}

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	c.queue = append(c.queue, p)
	if err := c.t.Send(cmd); err != nil {
		c.queue = c.queue[:len(c.queue)-1]
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()
	c.stats.sent(cmd.Replies())

	select {
	case <-p.done:
		if p.err != nil {
			return nil, p.err
		}
		return p.replies, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// onReply runs on the receive goroutine.
func (c *Connection) onReply(v resp.Value) {
	c.stats.received(v)

	c.mu.Lock()
	if len(c.queue) == 0 {
		c.mu.Unlock()
		c.log.Warn("reply with no pending request", zap.Stringer("type", v.Type()))
		return
	}
	p := c.queue[0]
	p.replies = append(p.replies, v)
	if len(p.replies) >= p.expect {
		c.queue[0] = nil
		c.queue = c.queue[1:]
		close(p.done)
	}
	c.mu.Unlock()
}

// onError fails every waiting request with err. It runs once.
func (c *Connection) onError(err error) {
	c.mu.Lock()
	c.err = err
	queue := c.queue
	c.queue = nil
	c.mu.Unlock()

	if !errors.Is(err, transport.ErrClosed) {
		c.stats.failed()
	}
	for _, p := range queue {
		p.err = err
		close(p.done)
	}
	if len(queue) > 0 {
		c.log.Debug("failed pending requests", zap.Int("count", len(queue)), zap.Error(err))
	}
}

// Do sends cmd and returns its first reply. A server error reply is returned
// as a resp.Error.
func (c *Connection) Do(ctx context.Context, cmd *resp.Command) (resp.Value, error) {
	replies, err := c.roundTrip(ctx, cmd)
	if err != nil {
		return nil, err
	}
	v := replies[0]
	if e, ok := v.(resp.Error); ok {
		return nil, e
	}
	return v, nil
}

// DoArgs is Do for a command built from strings.
func (c *Connection) DoArgs(ctx context.Context, name string, args ...string) (resp.Value, error) {
	return c.Do(ctx, c.enc.Command(name, args...))
}

// String returns a bulk or status reply as text, decoding bulk bytes with
// the connection's charset. An absent bulk string yields ErrNil.
func (c *Connection) String(ctx context.Context, cmd *resp.Command) (string, error) {
	v, err := c.Do(ctx, cmd)
	if err != nil {
		return "", err
	}
	return c.toString(v)
}

func (c *Connection) toString(v resp.Value) (string, error) {
	switch val := v.(type) {
	case resp.BulkString:
		if val.Null {
			return "", ErrNil
		}
		b, err := c.charset.NewDecoder().Bytes(val.Data)
		if err != nil {
			return "", fmt.Errorf("decoding reply: %w", err)
		}
		return string(b), nil
	case resp.SimpleString:
		return val.Value, nil
	}
	return "", &UnexpectedTypeError{Want: "string", Reply: v}
}

// Int returns an integer reply, or a bulk/status reply holding a number.
func (c *Connection) Int(ctx context.Context, cmd *resp.Command) (int64, error) {
	v, err := c.Do(ctx, cmd)
	if err != nil {
		return 0, err
	}
	return toInt(v)
}

func toInt(v resp.Value) (int64, error) {
	switch val := v.(type) {
	case resp.Integer:
		return val.Value, nil
	case resp.BulkString:
		if val.Null {
			return 0, ErrNil
		}
		if n, err := strconv.ParseInt(string(val.Data), 10, 64); err == nil {
			return n, nil
		}
	case resp.SimpleString:
		if n, err := strconv.ParseInt(val.Value, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, &UnexpectedTypeError{Want: "integer", Reply: v}
}

// Bytes returns the raw bytes of a bulk or status reply. An absent bulk
// string yields nil and no error.
func (c *Connection) Bytes(ctx context.Context, cmd *resp.Command) ([]byte, error) {
	v, err := c.Do(ctx, cmd)
	if err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case resp.BulkString:
		if val.Null {
			return nil, nil
		}
		return val.Data, nil
	case resp.SimpleString:
		return []byte(val.Value), nil
	}
	return nil, &UnexpectedTypeError{Want: "bytes", Reply: v}
}

// Array returns the elements of an array reply. An absent array yields nil
// and no error.
func (c *Connection) Array(ctx context.Context, cmd *resp.Command) ([]resp.Value, error) {
	v, err := c.Do(ctx, cmd)
	if err != nil {
		return nil, err
	}
	arr, ok := v.(resp.Array)
	if !ok {
		return nil, &UnexpectedTypeError{Want: "array", Reply: v}
	}
	if arr.Null {
		return nil, nil
	}
	return arr.Values, nil
}

// Enumerate sends a frame that carries cmd.Replies() pipelined commands and
// yields each reply in order. A server error reply is yielded as a
// resp.Error alongside a nil value and iteration continues; a connection
// failure is yielded once and ends it.
//
// The request is sent when iteration starts.
func (c *Connection) Enumerate(ctx context.Context, cmd *resp.Command) iter.Seq2[resp.Value, error] {
	return func(yield func(resp.Value, error) bool) {
		replies, err := c.roundTrip(ctx, cmd)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, v := range replies {
			if e, ok := v.(resp.Error); ok {
				if !yield(nil, e) {
					return
				}
				continue
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Exec sends cmd and returns every reply untouched, server errors included.
// It is what an interactive shell wants: errors are values to print.
func (c *Connection) Exec(ctx context.Context, cmd *resp.Command) ([]resp.Value, error) {
	return c.roundTrip(ctx, cmd)
}
