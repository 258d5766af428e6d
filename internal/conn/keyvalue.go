package conn

import (
	"context"
	"fmt"
	"iter"

	"github.com/cosmez/redisflow/internal/resp"
)

// KeyValue is the content of one key. Strings fill Single; every collection
// type fills Collection instead.
type KeyValue struct {
	Type       string
	Single     resp.Value
	Collection iter.Seq2[resp.Value, error]
}

// GetKeyValue looks up the type of key and fetches it the matching way.
func (c *Connection) GetKeyValue(ctx context.Context, key string) (KeyValue, error) {
	typeName, err := c.Type(ctx, key)
	if err != nil {
		return KeyValue{}, fmt.Errorf("TYPE %s: %w", key, err)
	}
	kv := KeyValue{Type: typeName}

	switch typeName {
	case "string":
		kv.Single, err = c.Do(ctx, c.enc.Command("GET", key))
		if err != nil {
			return kv, fmt.Errorf("GET %s: %w", key, err)
		}
	case "list":
		kv.Collection = c.SafeList(ctx, key)
	case "set":
		kv.Collection = c.SafeSets(ctx, key)
	case "zset":
		kv.Collection = c.SafeSortedSets(ctx, key)
	case "hash":
		kv.Collection = c.SafeHash(ctx, key)
	case "stream":
		kv.Collection = c.SafeStream(ctx, key)
	case "none":
		return kv, fmt.Errorf("key %q does not exist", key)
	default:
		return kv, fmt.Errorf("unsupported key type: %s", typeName)
	}
	return kv, nil
}
