package conn

import (
	"context"
	"fmt"
	"iter"
	"strconv"

	"github.com/cosmez/redisflow/internal/resp"
)

// scanCount is the COUNT hint sent with every cursor command.
const scanCount = "100"

// ScanResult is one page of a cursor scan. NextCursor is "0" on the last
// page.
type ScanResult struct {
	Cursor     string
	NextCursor string
	Results    []resp.Value
}

// Done reports whether this was the last page.
func (r ScanResult) Done() bool { return r.NextCursor == "0" }

// ScanPage runs one SCAN step. An empty match means every key.
func (c *Connection) ScanPage(ctx context.Context, cursor, match string, count int) (ScanResult, error) {
	args := []string{cursor}
	if match != "" {
		args = append(args, "MATCH", match)
	}
	if count > 0 {
		args = append(args, "COUNT", strconv.Itoa(count))
	}
	return c.scanStep(ctx, cursor, c.enc.Command("SCAN", args...))
}

func (c *Connection) scanStep(ctx context.Context, cursor string, cmd *resp.Command) (ScanResult, error) {
	vals, err := c.Array(ctx, cmd)
	if err != nil {
		return ScanResult{}, err
	}
	if len(vals) < 2 {
		return ScanResult{}, fmt.Errorf("unexpected scan reply with %d elements", len(vals))
	}
	items, ok := vals[1].(resp.Array)
	if !ok {
		return ScanResult{}, &UnexpectedTypeError{Want: "array", Reply: vals[1]}
	}
	return ScanResult{
		Cursor:     cursor,
		NextCursor: vals[0].StringValue(),
		Results:    items.Values,
	}, nil
}

// scan walks a cursor command to the end. stride 2 groups field/value or
// member/score pairs into two-element arrays.
func (c *Connection) scan(ctx context.Context, stride int, build func(cursor string) *resp.Command) iter.Seq2[resp.Value, error] {
	return func(yield func(resp.Value, error) bool) {
		cursor := "0"
		for {
			page, err := c.scanStep(ctx, cursor, build(cursor))
			if err != nil {
				yield(nil, err)
				return
			}

			for i := 0; i+stride <= len(page.Results); i += stride {
				var v resp.Value = page.Results[i]
				if stride > 1 {
					v = resp.Array{Values: page.Results[i : i+stride]}
				}
				if !yield(v, nil) {
					return
				}
			}

			if page.Done() {
				return
			}
			cursor = page.NextCursor
		}
	}
}

// SafeKeys iterates over every key matching pattern without blocking the
// server the way KEYS does.
func (c *Connection) SafeKeys(ctx context.Context, pattern string) iter.Seq2[resp.Value, error] {
	return c.scan(ctx, 1, func(cursor string) *resp.Command {
		return c.enc.Command("SCAN", cursor, "MATCH", pattern, "COUNT", scanCount)
	})
}

// SafeSets iterates over the members of a set.
func (c *Connection) SafeSets(ctx context.Context, key string) iter.Seq2[resp.Value, error] {
	return c.scan(ctx, 1, func(cursor string) *resp.Command {
		return c.enc.Command("SSCAN", key, cursor, "COUNT", scanCount)
	})
}

// SafeSortedSets yields [member, score] pairs.
func (c *Connection) SafeSortedSets(ctx context.Context, key string) iter.Seq2[resp.Value, error] {
	return c.scan(ctx, 2, func(cursor string) *resp.Command {
		return c.enc.Command("ZSCAN", key, cursor, "COUNT", scanCount)
	})
}

// SafeHash yields [field, value] pairs.
func (c *Connection) SafeHash(ctx context.Context, key string) iter.Seq2[resp.Value, error] {
	return c.scan(ctx, 2, func(cursor string) *resp.Command {
		return c.enc.Command("HSCAN", key, cursor, "COUNT", scanCount)
	})
}

// SafeList pages through a list with LRANGE, 100 elements at a time, until
// a page comes back empty.
func (c *Connection) SafeList(ctx context.Context, key string) iter.Seq2[resp.Value, error] {
	return func(yield func(resp.Value, error) bool) {
		for start := 0; ; start += 100 {
			vals, err := c.Array(ctx, c.enc.Command("LRANGE", key, strconv.Itoa(start), strconv.Itoa(start+99)))
			if err != nil {
				yield(nil, err)
				return
			}
			if len(vals) == 0 {
				return
			}
			for _, v := range vals {
				if !yield(v, nil) {
					return
				}
			}
		}
	}
}

// SafeStream pages through a stream with XRANGE. Each page resumes after the
// last ID seen, using the exclusive "(" range form (Redis 6.2+).
func (c *Connection) SafeStream(ctx context.Context, key string) iter.Seq2[resp.Value, error] {
	return func(yield func(resp.Value, error) bool) {
		start := "-"
		for {
			vals, err := c.Array(ctx, c.enc.Command("XRANGE", key, start, "+", "COUNT", scanCount))
			if err != nil {
				yield(nil, err)
				return
			}
			if len(vals) == 0 {
				return
			}
			for _, v := range vals {
				if !yield(v, nil) {
					return
				}
			}

			last, ok := vals[len(vals)-1].(resp.Array)
			if !ok || len(last.Values) == 0 {
				yield(nil, &UnexpectedTypeError{Want: "stream entry", Reply: vals[len(vals)-1]})
				return
			}
			start = "(" + last.Values[0].StringValue()
		}
	}
}
