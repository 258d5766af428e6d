// Package respstub is an in-process server for tests. Connections are
// net.Pipe pairs, so nothing touches the network; requests are parsed with
// the real resp.Decoder and answered by a Handler.
package respstub

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/cosmez/redisflow/internal/resp"
)

// Handler answers one request. It returns the raw reply frames to write,
// which may hold any number of replies, or "" to stay silent.
type Handler func(args []string) string

// Server hands out connections through DialContext. It is safe for
// concurrent use.
type Server struct {
	handler Handler

	mu        sync.Mutex
	requests  [][]string
	conns     []net.Conn
	dials     int
	dropAfter int
	dialErr   error
	served    int
}

// New returns a Server answering with h.
func New(h Handler) *Server {
	return &Server{handler: h, dropAfter: -1}
}

// DropAfter makes the server close every connection instead of answering
// once n requests have been answered. A negative n disables it.
func (s *Server) DropAfter(n int) *Server {
	s.mu.Lock()
	s.dropAfter = n
	s.mu.Unlock()
	return s
}

// FailDial makes every later dial return err.
func (s *Server) FailDial(err error) *Server {
	s.mu.Lock()
	s.dialErr = err
	s.mu.Unlock()
	return s
}

// DialContext matches net.Dialer.DialContext.
func (s *Server) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dials++
	if s.dialErr != nil {
		return nil, &net.OpError{Op: "dial", Net: network, Err: s.dialErr}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, server := net.Pipe()
	s.conns = append(s.conns, server)
	go s.serve(server)
	return client, nil
}

func (s *Server) serve(c net.Conn) {
	defer c.Close()

	var pending [][]string
	dec := resp.NewDecoder(func(v resp.Value) {
		pending = append(pending, Args(v))
	})

	for {
		_, err := dec.ReadOnce(c)
		for _, args := range pending {
			reply, ok := s.handle(args)
			if !ok {
				s.Kill()
				return
			}
			if reply == "" {
				continue
			}
			if _, werr := io.WriteString(c, reply); werr != nil {
				return
			}
		}
		pending = pending[:0]
		if err != nil {
			return
		}
	}
}

func (s *Server) handle(args []string) (string, bool) {
	s.mu.Lock()
	s.requests = append(s.requests, args)
	if s.dropAfter >= 0 && s.served >= s.dropAfter {
		s.mu.Unlock()
		return "", false
	}
	s.served++
	s.mu.Unlock()

	return s.handler(args), true
}

// Requests returns every request received so far, in arrival order.
func (s *Server) Requests() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.requests))
	copy(out, s.requests)
	return out
}

// Dials returns how many times DialContext was called.
func (s *Server) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

// Kill closes the server side of every connection, as if the network had
// gone away.
func (s *Server) Kill() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

// Close kills every connection and makes later dials fail.
func (s *Server) Close() error {
	s.FailDial(errors.New("respstub: server closed"))
	s.Kill()
	return nil
}

// Args flattens a request frame into its arguments. Anything that is not an
// array of strings yields nil.
func Args(v resp.Value) []string {
	arr, ok := v.(resp.Array)
	if !ok || arr.Null {
		return nil
	}
	args := make([]string, 0, len(arr.Values))
	for _, a := range arr.Values {
		args = append(args, a.StringValue())
	}
	return args
}
