package conn

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/cosmez/redisflow/internal/resp"
)

// ZMember is one sorted set entry.
type ZMember struct {
	Score  float64
	Member string
}

func formatScore(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// expectOK turns anything but +OK into an error.
func expectOK(v resp.Value, err error) error {
	if err != nil {
		return err
	}
	if s, ok := v.(resp.SimpleString); ok && s.Value == "OK" {
		return nil
	}
	return &UnexpectedTypeError{Want: "OK", Reply: v}
}

// Ping returns the server's answer, normally "PONG".
func (c *Connection) Ping(ctx context.Context) (string, error) {
	return c.String(ctx, c.enc.Command("PING"))
}

func (c *Connection) Set(ctx context.Context, key, value string) error {
	return expectOK(c.Do(ctx, c.enc.Command("SET", key, value)))
}

// SetBytes stores value without any charset conversion.
func (c *Connection) SetBytes(ctx context.Context, key string, value []byte) error {
	return expectOK(c.Do(ctx, c.enc.CommandBytes("SET", c.enc.Encode(key), value)))
}

// Get returns ErrNil when key does not exist.
func (c *Connection) Get(ctx context.Context, key string) (string, error) {
	return c.String(ctx, c.enc.Command("GET", key))
}

// GetBytes returns nil when key does not exist.
func (c *Connection) GetBytes(ctx context.Context, key string) ([]byte, error) {
	return c.Bytes(ctx, c.enc.Command("GET", key))
}

// Del returns the number of keys removed.
func (c *Connection) Del(ctx context.Context, keys ...string) (int64, error) {
	return c.Int(ctx, c.enc.Command("DEL", keys...))
}

func (c *Connection) Incr(ctx context.Context, key string) (int64, error) {
	return c.Int(ctx, c.enc.Command("INCR", key))
}

// Expire reports whether the timeout was set.
func (c *Connection) Expire(ctx context.Context, key string, seconds int64) (bool, error) {
	n, err := c.Int(ctx, c.enc.Command("EXPIRE", key, strconv.FormatInt(seconds, 10)))
	return n == 1, err
}

// Type returns the type name of key, "none" if it does not exist.
func (c *Connection) Type(ctx context.Context, key string) (string, error) {
	return c.String(ctx, c.enc.Command("TYPE", key))
}

// ZAdd returns the number of members added, not counting score updates.
func (c *Connection) ZAdd(ctx context.Context, key string, members ...ZMember) (int64, error) {
	if len(members) == 0 {
		return 0, errors.New("ZADD needs at least one member")
	}
	args := make([]string, 0, 1+2*len(members))
	args = append(args, key)
	for _, m := range members {
		args = append(args, formatScore(m.Score), m.Member)
	}
	return c.Int(ctx, c.enc.Command("ZADD", args...))
}

func (c *Connection) ZRem(ctx context.Context, key string, members ...string) (int64, error) {
	return c.Int(ctx, c.enc.Command("ZREM", append([]string{key}, members...)...))
}

func (c *Connection) ZCard(ctx context.Context, key string) (int64, error) {
	return c.Int(ctx, c.enc.Command("ZCARD", key))
}

// ZRange returns members between start and stop inclusive; -1 is the last.
func (c *Connection) ZRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	vals, err := c.Array(ctx, c.enc.Command("ZRANGE", key, strconv.FormatInt(start, 10), strconv.FormatInt(stop, 10)))
	if err != nil {
		return nil, err
	}
	return c.strings(vals)
}

// ZScore reports false when the member does not exist.
func (c *Connection) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	s, err := c.String(ctx, c.enc.Command("ZSCORE", key, member))
	if errors.Is(err, ErrNil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("ZSCORE %s %s: %w", key, member, err)
	}
	return f, true, nil
}

// HSet returns 1 if field is new, 0 if it was updated.
func (c *Connection) HSet(ctx context.Context, key, field, value string) (int64, error) {
	return c.Int(ctx, c.enc.Command("HSET", key, field, value))
}

// HGet returns ErrNil when the field does not exist.
func (c *Connection) HGet(ctx context.Context, key, field string) (string, error) {
	return c.String(ctx, c.enc.Command("HGET", key, field))
}

// HMGet returns the values of fields that exist. Missing fields are left out
// of the map.
func (c *Connection) HMGet(ctx context.Context, key string, fields ...string) (map[string]string, error) {
	vals, err := c.Array(ctx, c.enc.Command("HMGET", append([]string{key}, fields...)...))
	if err != nil {
		return nil, err
	}
	if len(vals) != len(fields) {
		return nil, fmt.Errorf("HMGET returned %d values for %d fields", len(vals), len(fields))
	}
	out := make(map[string]string, len(fields))
	for i, v := range vals {
		s, err := c.toString(v)
		if errors.Is(err, ErrNil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[fields[i]] = s
	}
	return out, nil
}

// HMSet sets several fields at once. Fields are sent in the order given.
func (c *Connection) HMSet(ctx context.Context, key string, pairs ...[2]string) error {
	if len(pairs) == 0 {
		return errors.New("HMSET needs at least one field")
	}
	args := make([]string, 0, 1+2*len(pairs))
	args = append(args, key)
	for _, p := range pairs {
		args = append(args, p[0], p[1])
	}
	return expectOK(c.Do(ctx, c.enc.Command("HMSET", args...)))
}

func (c *Connection) strings(vals []resp.Value) ([]string, error) {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		s, err := c.toString(v)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
