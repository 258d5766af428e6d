package respstub

import (
	"cmp"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"
)

type zmember struct {
	member string
	score  float64
}

// Memory is a tiny in-memory data store that answers the commands the client
// library issues. Expiry is recorded but never enforced.
type Memory struct {
	// Password, when set, is required by AUTH. Username is optional.
	Password string
	Username string

	mu      sync.Mutex
	strings map[string]string
	hashes  map[string]map[string]string
	sets    map[string]map[string]struct{}
	zsets   map[string]map[string]float64
	lists   map[string][]string
	ttl     map[string]int64
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		strings: map[string]string{},
		hashes:  map[string]map[string]string{},
		sets:    map[string]map[string]struct{}{},
		zsets:   map[string]map[string]float64{},
		lists:   map[string][]string{},
		ttl:     map[string]int64{},
	}
}

// TTL returns the expiry recorded for key, in seconds.
func (m *Memory) TTL(key string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.ttl[key]
	return s, ok
}

const wrongType = "WRONGTYPE Operation against a key holding the wrong kind of value"

// Handle implements Handler.
func (m *Memory) Handle(args []string) string {
	if len(args) == 0 {
		return Error("ERR empty command")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	name := strings.ToUpper(args[0])
	args = args[1:]

	switch name {
	case "PING":
		if len(args) > 0 {
			return Bulk(args[0])
		}
		return Simple("PONG")
	case "ECHO":
		if len(args) != 1 {
			return arity(name)
		}
		return Bulk(args[0])
	case "AUTH":
		return m.auth(args)
	case "SET":
		if len(args) < 2 {
			return arity(name)
		}
		m.del(args[0])
		m.strings[args[0]] = args[1]
		return OK
	case "GET":
		if len(args) != 1 {
			return arity(name)
		}
		if m.kind(args[0]) != "string" && m.kind(args[0]) != "none" {
			return Error(wrongType)
		}
		v, ok := m.strings[args[0]]
		if !ok {
			return NullBulk
		}
		return Bulk(v)
	case "DEL":
		n := int64(0)
		for _, k := range args {
			if m.del(k) {
				n++
			}
		}
		return Int(n)
	case "INCR":
		if len(args) != 1 {
			return arity(name)
		}
		n, err := strconv.ParseInt(cmp.Or(m.strings[args[0]], "0"), 10, 64)
		if err != nil {
			return Error("ERR value is not an integer or out of range")
		}
		n++
		m.strings[args[0]] = strconv.FormatInt(n, 10)
		return Int(n)
	case "EXPIRE":
		if len(args) != 2 {
			return arity(name)
		}
		secs, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return Error("ERR value is not an integer or out of range")
		}
		if m.kind(args[0]) == "none" {
			return Int(0)
		}
		m.ttl[args[0]] = secs
		return Int(1)
	case "TYPE":
		if len(args) != 1 {
			return arity(name)
		}
		return Simple(m.kind(args[0]))
	case "DBSIZE":
		return Int(int64(len(m.keys())))
	case "FLUSHALL", "FLUSHDB":
		fresh := NewMemory()
		m.strings, m.hashes, m.sets, m.zsets, m.lists, m.ttl = fresh.strings, fresh.hashes, fresh.sets, fresh.zsets, fresh.lists, fresh.ttl
		return OK

	case "HSET", "HMSET":
		if len(args) < 3 || len(args)%2 == 0 {
			return arity(name)
		}
		h, ok := m.hash(args[0], true)
		if !ok {
			return Error(wrongType)
		}
		added := int64(0)
		for i := 1; i < len(args); i += 2 {
			if _, exists := h[args[i]]; !exists {
				added++
			}
			h[args[i]] = args[i+1]
		}
		if name == "HMSET" {
			return OK
		}
		return Int(added)
	case "HGET":
		if len(args) != 2 {
			return arity(name)
		}
		h, ok := m.hash(args[0], false)
		if !ok {
			return Error(wrongType)
		}
		v, ok := h[args[1]]
		if !ok {
			return NullBulk
		}
		return Bulk(v)
	case "HMGET":
		if len(args) < 2 {
			return arity(name)
		}
		h, ok := m.hash(args[0], false)
		if !ok {
			return Error(wrongType)
		}
		frames := make([]string, 0, len(args)-1)
		for _, f := range args[1:] {
			if v, ok := h[f]; ok {
				frames = append(frames, Bulk(v))
			} else {
				frames = append(frames, NullBulk)
			}
		}
		return Array(frames...)

	case "SADD":
		if len(args) < 2 {
			return arity(name)
		}
		if k := m.kind(args[0]); k != "set" && k != "none" {
			return Error(wrongType)
		}
		set := m.sets[args[0]]
		if set == nil {
			set = map[string]struct{}{}
			m.sets[args[0]] = set
		}
		added := int64(0)
		for _, v := range args[1:] {
			if _, ok := set[v]; !ok {
				set[v] = struct{}{}
				added++
			}
		}
		return Int(added)

	case "RPUSH":
		if len(args) < 2 {
			return arity(name)
		}
		if k := m.kind(args[0]); k != "list" && k != "none" {
			return Error(wrongType)
		}
		m.lists[args[0]] = append(m.lists[args[0]], args[1:]...)
		return Int(int64(len(m.lists[args[0]])))
	case "LLEN":
		if len(args) != 1 {
			return arity(name)
		}
		if k := m.kind(args[0]); k != "list" && k != "none" {
			return Error(wrongType)
		}
		return Int(int64(len(m.lists[args[0]])))
	case "LRANGE":
		if len(args) != 3 {
			return arity(name)
		}
		if k := m.kind(args[0]); k != "list" && k != "none" {
			return Error(wrongType)
		}
		list := m.lists[args[0]]
		lo, hi, err := bounds(args[1], args[2], len(list))
		if err != "" {
			return Error(err)
		}
		if lo > hi {
			return BulkArray()
		}
		return BulkArray(list[lo : hi+1]...)

	case "ZADD":
		if len(args) < 3 || len(args)%2 == 0 {
			return arity(name)
		}
		if k := m.kind(args[0]); k != "zset" && k != "none" {
			return Error(wrongType)
		}
		z := m.zsets[args[0]]
		if z == nil {
			z = map[string]float64{}
			m.zsets[args[0]] = z
		}
		added := int64(0)
		for i := 1; i < len(args); i += 2 {
			score, err := strconv.ParseFloat(args[i], 64)
			if err != nil {
				return Error("ERR value is not a valid float")
			}
			if _, ok := z[args[i+1]]; !ok {
				added++
			}
			z[args[i+1]] = score
		}
		return Int(added)
	case "ZREM":
		if len(args) < 2 {
			return arity(name)
		}
		z := m.zsets[args[0]]
		removed := int64(0)
		for _, v := range args[1:] {
			if _, ok := z[v]; ok {
				delete(z, v)
				removed++
			}
		}
		if len(z) == 0 {
			delete(m.zsets, args[0])
		}
		return Int(removed)
	case "ZCARD":
		if len(args) != 1 {
			return arity(name)
		}
		return Int(int64(len(m.zsets[args[0]])))
	case "ZSCORE":
		if len(args) != 2 {
			return arity(name)
		}
		score, ok := m.zsets[args[0]][args[1]]
		if !ok {
			return NullBulk
		}
		return Bulk(strconv.FormatFloat(score, 'f', -1, 64))
	case "ZRANGE":
		if len(args) < 3 {
			return arity(name)
		}
		members := m.sortedMembers(args[0])
		lo, hi, err := bounds(args[1], args[2], len(members))
		if err != "" {
			return Error(err)
		}
		withScores := len(args) > 3 && strings.EqualFold(args[3], "WITHSCORES")
		var out []string
		for i := lo; i <= hi; i++ {
			out = append(out, members[i].member)
			if withScores {
				out = append(out, strconv.FormatFloat(members[i].score, 'f', -1, 64))
			}
		}
		return BulkArray(out...)

	case "SCAN":
		if len(args) < 1 {
			return arity(name)
		}
		return scanReply(m.keys(), args[0], args[1:], 1)
	case "SSCAN":
		if len(args) < 2 {
			return arity(name)
		}
		var items []string
		for v := range m.sets[args[0]] {
			items = append(items, v)
		}
		slices.Sort(items)
		return scanReply(items, args[1], args[2:], 1)
	case "HSCAN":
		if len(args) < 2 {
			return arity(name)
		}
		h := m.hashes[args[0]]
		fields := make([]string, 0, len(h))
		for f := range h {
			fields = append(fields, f)
		}
		slices.Sort(fields)
		items := make([]string, 0, 2*len(fields))
		for _, f := range fields {
			items = append(items, f, h[f])
		}
		return scanReply(items, args[1], args[2:], 2)
	case "ZSCAN":
		if len(args) < 2 {
			return arity(name)
		}
		var items []string
		for _, zm := range m.sortedMembers(args[0]) {
			items = append(items, zm.member, strconv.FormatFloat(zm.score, 'f', -1, 64))
		}
		return scanReply(items, args[1], args[2:], 2)

	case "INFO":
		return Bulk("# Server\r\nredis_version:7.2.4\r\nredis_mode:standalone\r\ntcp_port:6379\r\n\r\n# Keyspace\r\n" +
			fmt.Sprintf("db0:keys=%d,expires=%d\r\n", len(m.keys()), len(m.ttl)))
	case "COMMAND":
		return commandTable
	}
	return Error(fmt.Sprintf("ERR unknown command '%s'", strings.ToLower(name)))
}

func (m *Memory) auth(args []string) string {
	var user, pass string
	switch len(args) {
	case 1:
		pass = args[0]
	case 2:
		user, pass = args[0], args[1]
	default:
		return arity("AUTH")
	}
	if m.Password == "" {
		return Error("ERR AUTH <password> called without any password configured for the default user")
	}
	if pass != m.Password || (user != "" && user != cmp.Or(m.Username, "default")) {
		return Error("WRONGPASS invalid username-password pair or user is disabled.")
	}
	return OK
}

func (m *Memory) kind(key string) string {
	if _, ok := m.strings[key]; ok {
		return "string"
	}
	if _, ok := m.hashes[key]; ok {
		return "hash"
	}
	if _, ok := m.sets[key]; ok {
		return "set"
	}
	if _, ok := m.zsets[key]; ok {
		return "zset"
	}
	if _, ok := m.lists[key]; ok {
		return "list"
	}
	return "none"
}

func (m *Memory) del(key string) bool {
	found := m.kind(key) != "none"
	delete(m.strings, key)
	delete(m.hashes, key)
	delete(m.sets, key)
	delete(m.zsets, key)
	delete(m.lists, key)
	delete(m.ttl, key)
	return found
}

func (m *Memory) hash(key string, create bool) (map[string]string, bool) {
	if k := m.kind(key); k != "hash" && k != "none" {
		return nil, false
	}
	h := m.hashes[key]
	if h == nil && create {
		h = map[string]string{}
		m.hashes[key] = h
	}
	return h, true
}

func (m *Memory) keys() []string {
	var keys []string
	for k := range m.strings {
		keys = append(keys, k)
	}
	for k := range m.hashes {
		keys = append(keys, k)
	}
	for k := range m.sets {
		keys = append(keys, k)
	}
	for k := range m.zsets {
		keys = append(keys, k)
	}
	for k := range m.lists {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (m *Memory) sortedMembers(key string) []zmember {
	z := m.zsets[key]
	members := make([]zmember, 0, len(z))
	for k, v := range z {
		members = append(members, zmember{member: k, score: v})
	}
	slices.SortFunc(members, func(a, b zmember) int {
		if c := cmp.Compare(a.score, b.score); c != 0 {
			return c
		}
		return cmp.Compare(a.member, b.member)
	})
	return members
}

func arity(name string) string {
	return Error(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
}

// bounds resolves inclusive start/stop indexes, negative ones counting from
// the end, clamped to [0, n-1]. lo > hi means an empty range.
func bounds(start, stop string, n int) (int, int, string) {
	lo, err1 := strconv.Atoi(start)
	hi, err2 := strconv.Atoi(stop)
	if err1 != nil || err2 != nil {
		return 0, 0, "ERR value is not an integer or out of range"
	}
	if lo < 0 {
		lo += n
	}
	if hi < 0 {
		hi += n
	}
	lo = max(lo, 0)
	hi = min(hi, n-1)
	return lo, hi, ""
}

// scanReply pages through items. The cursor is the index of the next entry;
// stride keeps field/value pairs together.
func scanReply(items []string, cursor string, opts []string, stride int) string {
	pos, err := strconv.Atoi(cursor)
	if err != nil || pos < 0 {
		return Error("ERR invalid cursor")
	}
	count, match := 10, ""
	for i := 0; i+1 < len(opts); i += 2 {
		switch strings.ToUpper(opts[i]) {
		case "COUNT":
			if n, err := strconv.Atoi(opts[i+1]); err == nil && n > 0 {
				count = n
			}
		case "MATCH":
			match = opts[i+1]
		}
	}

	var page []string
	end := min(pos+count*stride, len(items))
	for i := pos; i < end; i += stride {
		if match != "" {
			if ok, _ := path.Match(match, items[i]); !ok {
				continue
			}
		}
		page = append(page, items[i:i+stride]...)
	}

	next := "0"
	if end < len(items) {
		next = strconv.Itoa(end)
	}
	return Array(Bulk(next), BulkArray(page...))
}

// commandTable is a trimmed COMMAND reply: name, arity, flags, first key,
// last key, step, ACL categories, tips, key specs, subcommands.
var commandTable = Array(
	Array(Bulk("get"), Int(2), BulkArray("readonly", "fast"), Int(1), Int(1), Int(1), BulkArray("@read", "@string", "@fast"), BulkArray(), BulkArray(), BulkArray()),
	Array(Bulk("set"), Int(-3), BulkArray("write", "denyoom"), Int(1), Int(1), Int(1), BulkArray("@write", "@string", "@slow"), BulkArray(), BulkArray(), BulkArray()),
	Array(Bulk("client"), Int(-2), BulkArray(), Int(0), Int(0), Int(0), BulkArray("@slow"), BulkArray(), BulkArray(),
		Array(
			Array(Bulk("client|list"), Int(-2), BulkArray("admin"), Int(0), Int(0), Int(0), BulkArray("@admin", "@slow", "@dangerous", "@connection"), BulkArray(), BulkArray(), BulkArray()),
		),
	),
)
