package conn

import (
	"sync/atomic"

	"github.com/cosmez/redisflow/internal/resp"
)

// Stats is a point-in-time copy of a connection's counters.
type Stats struct {
	Commands         uint64 // commands sent; a pipelined frame counts each command
	Replies          uint64 // top-level replies received
	ServerErrors     uint64 // replies that were error frames
	ConnectionErrors uint64 // fatal transport failures, Close excluded
	Pending          int    // requests waiting for replies right now
}

type statsCollector struct {
	commands     atomic.Uint64
	replies      atomic.Uint64
	serverErrors atomic.Uint64
	connErrors   atomic.Uint64
}

func (s *statsCollector) sent(n int) { s.commands.Add(uint64(n)) }

func (s *statsCollector) received(v resp.Value) {
	s.replies.Add(1)
	if v.Type() == resp.TypeError {
		s.serverErrors.Add(1)
	}
}

func (s *statsCollector) failed() { s.connErrors.Add(1) }

// Stats returns the connection's counters.
func (c *Connection) Stats() Stats {
	return Stats{
		Commands:         c.stats.commands.Load(),
		Replies:          c.stats.replies.Load(),
		ServerErrors:     c.stats.serverErrors.Load(),
		ConnectionErrors: c.stats.connErrors.Load(),
		Pending:          c.Pending(),
	}
}
