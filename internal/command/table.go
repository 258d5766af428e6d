package command

// builtin documents the server commands known without asking the server.
// MergeServerCommands adds whatever else the server reports.
var builtin = []CommandDoc{
	// connection
	{Command: "AUTH", Summary: "Authenticate to the server", Arguments: "[username] password", Since: "1.0.0", Group: "connection"},
	{Command: "CLIENT GETNAME", Summary: "Get the current connection name", Since: "2.6.9", Group: "connection"},
	{Command: "CLIENT ID", Summary: "Returns the client ID for the current connection", Since: "5.0.0", Group: "connection"},
	{Command: "CLIENT INFO", Summary: "Returns information about the current client connection", Since: "6.2.0", Group: "connection"},
	{Command: "CLIENT KILL", Summary: "Kill the connection of a client", Arguments: "[ID client-id] [ADDR ip:port] [SKIPME yes/no]", Since: "2.4.0", Group: "connection"},
	{Command: "CLIENT LIST", Summary: "Get the list of client connections", Arguments: "[TYPE normal|master|replica|pubsub]", Since: "2.4.0", Group: "connection"},
	{Command: "CLIENT SETNAME", Summary: "Set the current connection name", Arguments: "connection-name", Since: "2.6.9", Group: "connection"},
	{Command: "ECHO", Summary: "Echo the given string", Arguments: "message", Since: "1.0.0", Group: "connection"},
	{Command: "HELLO", Summary: "Handshake with the server", Arguments: "[protover [AUTH username password] [SETNAME clientname]]", Since: "6.0.0", Group: "connection"},
	{Command: "PING", Summary: "Ping the server", Arguments: "[message]", Since: "1.0.0", Group: "connection"},
	{Command: "SELECT", Summary: "Change the selected database for the current connection", Arguments: "index", Since: "1.0.0", Group: "connection"},

	// generic
	{Command: "COPY", Summary: "Copy a key", Arguments: "source destination [DB destination-db] [REPLACE]", Since: "6.2.0", Group: "generic"},
	{Command: "DEL", Summary: "Delete a key", Arguments: "key [key ...]", Since: "1.0.0", Group: "generic"},
	{Command: "DUMP", Summary: "Return a serialized version of the value stored at the specified key", Arguments: "key", Since: "2.6.0", Group: "generic"},
	{Command: "EXISTS", Summary: "Determine if a key exists", Arguments: "key [key ...]", Since: "1.0.0", Group: "generic"},
	{Command: "EXPIRE", Summary: "Set a key's time to live in seconds", Arguments: "key seconds [NX|XX|GT|LT]", Since: "1.0.0", Group: "generic"},
	{Command: "EXPIREAT", Summary: "Set the expiration for a key as a UNIX timestamp", Arguments: "key unix-time-seconds", Since: "1.2.0", Group: "generic"},
	{Command: "KEYS", Summary: "Find all keys matching the given pattern", Arguments: "pattern", Since: "1.0.0", Group: "generic"},
	{Command: "OBJECT ENCODING", Summary: "Inspect the internal encoding of a Redis object", Arguments: "key", Since: "2.2.3", Group: "generic"},
	{Command: "PERSIST", Summary: "Remove the expiration from a key", Arguments: "key", Since: "2.2.0", Group: "generic"},
	{Command: "PEXPIRE", Summary: "Set a key's time to live in milliseconds", Arguments: "key milliseconds", Since: "2.6.0", Group: "generic"},
	{Command: "PTTL", Summary: "Get the time to live for a key in milliseconds", Arguments: "key", Since: "2.6.0", Group: "generic"},
	{Command: "RANDOMKEY", Summary: "Return a random key from the keyspace", Since: "1.0.0", Group: "generic"},
	{Command: "RENAME", Summary: "Rename a key", Arguments: "key newkey", Since: "1.0.0", Group: "generic"},
	{Command: "RENAMENX", Summary: "Rename a key, only if the new key does not exist", Arguments: "key newkey", Since: "1.0.0", Group: "generic"},
	{Command: "SCAN", Summary: "Incrementally iterate the keys space", Arguments: "cursor [MATCH pattern] [COUNT count] [TYPE type]", Since: "2.8.0", Group: "generic"},
	{Command: "TOUCH", Summary: "Alters the last access time of a key(s)", Arguments: "key [key ...]", Since: "3.2.1", Group: "generic"},
	{Command: "TTL", Summary: "Get the time to live for a key in seconds", Arguments: "key", Since: "1.0.0", Group: "generic"},
	{Command: "TYPE", Summary: "Determine the type stored at key", Arguments: "key", Since: "1.0.0", Group: "generic"},
	{Command: "UNLINK", Summary: "Delete a key asynchronously in another thread", Arguments: "key [key ...]", Since: "4.0.0", Group: "generic"},

	// string
	{Command: "APPEND", Summary: "Append a value to a key", Arguments: "key value", Since: "2.0.0", Group: "string"},
	{Command: "DECR", Summary: "Decrement the integer value of a key by one", Arguments: "key", Since: "1.0.0", Group: "string"},
	{Command: "DECRBY", Summary: "Decrement the integer value of a key by the given number", Arguments: "key decrement", Since: "1.0.0", Group: "string"},
	{Command: "GET", Summary: "Get the value of a key", Arguments: "key", Since: "1.0.0", Group: "string"},
	{Command: "GETDEL", Summary: "Get the value of a key and delete the key", Arguments: "key", Since: "6.2.0", Group: "string"},
	{Command: "GETRANGE", Summary: "Get a substring of the string stored at a key", Arguments: "key start end", Since: "2.4.0", Group: "string"},
	{Command: "INCR", Summary: "Increment the integer value of a key by one", Arguments: "key", Since: "1.0.0", Group: "string"},
	{Command: "INCRBY", Summary: "Increment the integer value of a key by the given amount", Arguments: "key increment", Since: "1.0.0", Group: "string"},
	{Command: "INCRBYFLOAT", Summary: "Increment the float value of a key by the given amount", Arguments: "key increment", Since: "2.6.0", Group: "string"},
	{Command: "MGET", Summary: "Get the values of all the given keys", Arguments: "key [key ...]", Since: "1.0.0", Group: "string"},
	{Command: "MSET", Summary: "Set multiple keys to multiple values", Arguments: "key value [key value ...]", Since: "1.0.1", Group: "string"},
	{Command: "SET", Summary: "Set the string value of a key", Arguments: "key value [NX|XX] [GET] [EX seconds|PX milliseconds|KEEPTTL]", Since: "1.0.0", Group: "string"},
	{Command: "SETNX", Summary: "Set the value of a key, only if the key does not exist", Arguments: "key value", Since: "1.0.0", Group: "string"},
	{Command: "SETRANGE", Summary: "Overwrite part of a string at key starting at the specified offset", Arguments: "key offset value", Since: "2.2.0", Group: "string"},
	{Command: "STRLEN", Summary: "Get the length of the value stored in a key", Arguments: "key", Since: "2.2.0", Group: "string"},

	// hash
	{Command: "HDEL", Summary: "Delete one or more hash fields", Arguments: "key field [field ...]", Since: "2.0.0", Group: "hash"},
	{Command: "HEXISTS", Summary: "Determine if a hash field exists", Arguments: "key field", Since: "2.0.0", Group: "hash"},
	{Command: "HGET", Summary: "Get the value of a hash field", Arguments: "key field", Since: "2.0.0", Group: "hash"},
	{Command: "HGETALL", Summary: "Get all the fields and values in a hash", Arguments: "key", Since: "2.0.0", Group: "hash"},
	{Command: "HINCRBY", Summary: "Increment the integer value of a hash field by the given number", Arguments: "key field increment", Since: "2.0.0", Group: "hash"},
	{Command: "HKEYS", Summary: "Get all the fields in a hash", Arguments: "key", Since: "2.0.0", Group: "hash"},
	{Command: "HLEN", Summary: "Get the number of fields in a hash", Arguments: "key", Since: "2.0.0", Group: "hash"},
	{Command: "HMGET", Summary: "Get the values of all the given hash fields", Arguments: "key field [field ...]", Since: "2.0.0", Group: "hash"},
	{Command: "HMSET", Summary: "Set multiple hash fields to multiple values", Arguments: "key field value [field value ...]", Since: "2.0.0", Group: "hash"},
	{Command: "HSCAN", Summary: "Incrementally iterate hash fields and associated values", Arguments: "key cursor [MATCH pattern] [COUNT count]", Since: "2.8.0", Group: "hash"},
	{Command: "HSET", Summary: "Set the string value of a hash field", Arguments: "key field value [field value ...]", Since: "2.0.0", Group: "hash"},
	{Command: "HSETNX", Summary: "Set the value of a hash field, only if the field does not exist", Arguments: "key field value", Since: "2.0.0", Group: "hash"},
	{Command: "HVALS", Summary: "Get all the values in a hash", Arguments: "key", Since: "2.0.0", Group: "hash"},

	// list
	{Command: "BLPOP", Summary: "Remove and get the first element in a list, or block until one is available", Arguments: "key [key ...] timeout", Since: "2.0.0", Group: "list"},
	{Command: "BRPOP", Summary: "Remove and get the last element in a list, or block until one is available", Arguments: "key [key ...] timeout", Since: "2.0.0", Group: "list"},
	{Command: "LINDEX", Summary: "Get an element from a list by its index", Arguments: "key index", Since: "1.0.0", Group: "list"},
	{Command: "LINSERT", Summary: "Insert an element before or after another element in a list", Arguments: "key BEFORE|AFTER pivot element", Since: "2.2.0", Group: "list"},
	{Command: "LLEN", Summary: "Get the length of a list", Arguments: "key", Since: "1.0.0", Group: "list"},
	{Command: "LPOP", Summary: "Remove and get the first elements in a list", Arguments: "key [count]", Since: "1.0.0", Group: "list"},
	{Command: "LPUSH", Summary: "Prepend one or multiple elements to a list", Arguments: "key element [element ...]", Since: "1.0.0", Group: "list"},
	{Command: "LRANGE", Summary: "Get a range of elements from a list", Arguments: "key start stop", Since: "1.0.0", Group: "list"},
	{Command: "LREM", Summary: "Remove elements from a list", Arguments: "key count element", Since: "1.0.0", Group: "list"},
	{Command: "LSET", Summary: "Set the value of an element in a list by its index", Arguments: "key index element", Since: "1.0.0", Group: "list"},
	{Command: "LTRIM", Summary: "Trim a list to the specified range", Arguments: "key start stop", Since: "1.0.0", Group: "list"},
	{Command: "RPOP", Summary: "Remove and get the last elements in a list", Arguments: "key [count]", Since: "1.0.0", Group: "list"},
	{Command: "RPUSH", Summary: "Append one or multiple elements to a list", Arguments: "key element [element ...]", Since: "1.0.0", Group: "list"},

	// set
	{Command: "SADD", Summary: "Add one or more members to a set", Arguments: "key member [member ...]", Since: "1.0.0", Group: "set"},
	{Command: "SCARD", Summary: "Get the number of members in a set", Arguments: "key", Since: "1.0.0", Group: "set"},
	{Command: "SDIFF", Summary: "Subtract multiple sets", Arguments: "key [key ...]", Since: "1.0.0", Group: "set"},
	{Command: "SINTER", Summary: "Intersect multiple sets", Arguments: "key [key ...]", Since: "1.0.0", Group: "set"},
	{Command: "SISMEMBER", Summary: "Determine if a given value is a member of a set", Arguments: "key member", Since: "1.0.0", Group: "set"},
	{Command: "SMEMBERS", Summary: "Get all the members in a set", Arguments: "key", Since: "1.0.0", Group: "set"},
	{Command: "SPOP", Summary: "Remove and return one or multiple random members from a set", Arguments: "key [count]", Since: "1.0.0", Group: "set"},
	{Command: "SREM", Summary: "Remove one or more members from a set", Arguments: "key member [member ...]", Since: "1.0.0", Group: "set"},
	{Command: "SSCAN", Summary: "Incrementally iterate Set elements", Arguments: "key cursor [MATCH pattern] [COUNT count]", Since: "2.8.0", Group: "set"},
	{Command: "SUNION", Summary: "Add multiple sets", Arguments: "key [key ...]", Since: "1.0.0", Group: "set"},

	// sorted set
	{Command: "BZPOPMAX", Summary: "Remove and return the member with the highest score from one or more sorted sets, or block until one is available", Arguments: "key [key ...] timeout", Since: "5.0.0", Group: "sorted-set"},
	{Command: "BZPOPMIN", Summary: "Remove and return the member with the lowest score from one or more sorted sets, or block until one is available", Arguments: "key [key ...] timeout", Since: "5.0.0", Group: "sorted-set"},
	{Command: "ZADD", Summary: "Add one or more members to a sorted set, or update its score if it already exists", Arguments: "key [NX|XX] [GT|LT] [CH] [INCR] score member [score member ...]", Since: "1.2.0", Group: "sorted-set"},
	{Command: "ZCARD", Summary: "Get the number of members in a sorted set", Arguments: "key", Since: "1.2.0", Group: "sorted-set"},
	{Command: "ZCOUNT", Summary: "Count the members in a sorted set with scores within the given values", Arguments: "key min max", Since: "2.0.0", Group: "sorted-set"},
	{Command: "ZINCRBY", Summary: "Increment the score of a member in a sorted set", Arguments: "key increment member", Since: "1.2.0", Group: "sorted-set"},
	{Command: "ZRANGE", Summary: "Return a range of members in a sorted set", Arguments: "key start stop [BYSCORE|BYLEX] [REV] [LIMIT offset count] [WITHSCORES]", Since: "1.2.0", Group: "sorted-set"},
	{Command: "ZRANK", Summary: "Determine the index of a member in a sorted set", Arguments: "key member", Since: "2.0.0", Group: "sorted-set"},
	{Command: "ZREM", Summary: "Remove one or more members from a sorted set", Arguments: "key member [member ...]", Since: "1.2.0", Group: "sorted-set"},
	{Command: "ZREVRANGE", Summary: "Return a range of members in a sorted set, by index, with scores ordered from high to low", Arguments: "key start stop [WITHSCORES]", Since: "1.2.0", Group: "sorted-set"},
	{Command: "ZSCAN", Summary: "Incrementally iterate sorted sets elements and associated scores", Arguments: "key cursor [MATCH pattern] [COUNT count]", Since: "2.8.0", Group: "sorted-set"},
	{Command: "ZSCORE", Summary: "Get the score associated with the given member in a sorted set", Arguments: "key member", Since: "1.2.0", Group: "sorted-set"},

	// stream
	{Command: "XADD", Summary: "Appends a new entry to a stream", Arguments: "key [NOMKSTREAM] [MAXLEN|MINID [=|~] threshold] *|id field value [field value ...]", Since: "5.0.0", Group: "stream"},
	{Command: "XDEL", Summary: "Removes the specified entries from the stream", Arguments: "key id [id ...]", Since: "5.0.0", Group: "stream"},
	{Command: "XLEN", Summary: "Return the number of entries in a stream", Arguments: "key", Since: "5.0.0", Group: "stream"},
	{Command: "XRANGE", Summary: "Return a range of elements in a stream, with IDs matching the specified IDs interval", Arguments: "key start end [COUNT count]", Since: "5.0.0", Group: "stream"},
	{Command: "XREAD", Summary: "Return never seen elements in multiple streams, with IDs greater than the ones reported by the caller for each stream", Arguments: "[COUNT count] [BLOCK milliseconds] STREAMS key [key ...] id [id ...]", Since: "5.0.0", Group: "stream"},
	{Command: "XREVRANGE", Summary: "Return a range of elements in a stream, with IDs matching the specified IDs interval, in reverse order", Arguments: "key end start [COUNT count]", Since: "5.0.0", Group: "stream"},
	{Command: "XTRIM", Summary: "Trims the stream to (approximately if '~' is passed) a certain size", Arguments: "key MAXLEN|MINID [=|~] threshold", Since: "5.0.0", Group: "stream"},

	// transactions
	{Command: "DISCARD", Summary: "Discard all commands issued after MULTI", Since: "2.0.0", Group: "transactions"},
	{Command: "EXEC", Summary: "Execute all commands issued after MULTI", Since: "1.2.0", Group: "transactions"},
	{Command: "MULTI", Summary: "Mark the start of a transaction block", Since: "1.2.0", Group: "transactions"},
	{Command: "UNWATCH", Summary: "Forget about all watched keys", Since: "2.2.0", Group: "transactions"},
	{Command: "WATCH", Summary: "Watch the given keys to determine execution of the MULTI/EXEC block", Arguments: "key [key ...]", Since: "2.2.0", Group: "transactions"},

	// scripting
	{Command: "EVAL", Summary: "Execute a Lua script server side", Arguments: "script numkeys [key [key ...]] [arg [arg ...]]", Since: "2.6.0", Group: "scripting"},
	{Command: "EVALSHA", Summary: "Execute a Lua script server side", Arguments: "sha1 numkeys [key [key ...]] [arg [arg ...]]", Since: "2.6.0", Group: "scripting"},
	{Command: "SCRIPT LOAD", Summary: "Load the specified Lua script into the script cache", Arguments: "script", Since: "2.6.0", Group: "scripting"},

	// server
	{Command: "BGREWRITEAOF", Summary: "Asynchronously rewrite the append-only file", Since: "1.0.0", Group: "server"},
	{Command: "BGSAVE", Summary: "Asynchronously save the dataset to disk", Arguments: "[SCHEDULE]", Since: "1.0.0", Group: "server"},
	{Command: "COMMAND", Summary: "Get array of Redis command details", Since: "2.8.13", Group: "server"},
	{Command: "CONFIG GET", Summary: "Get the values of configuration parameters", Arguments: "parameter [parameter ...]", Since: "2.0.0", Group: "server"},
	{Command: "CONFIG SET", Summary: "Set configuration parameters to the given values", Arguments: "parameter value [parameter value ...]", Since: "2.0.0", Group: "server"},
	{Command: "DBSIZE", Summary: "Return the number of keys in the selected database", Since: "1.0.0", Group: "server"},
	{Command: "DEBUG", Summary: "A container for debugging commands", Since: "1.0.0", Group: "server"},
	{Command: "FLUSHALL", Summary: "Remove all keys from all databases", Arguments: "[ASYNC|SYNC]", Since: "1.0.0", Group: "server"},
	{Command: "FLUSHDB", Summary: "Remove all keys from the current database", Arguments: "[ASYNC|SYNC]", Since: "1.0.0", Group: "server"},
	{Command: "INFO", Summary: "Get information and statistics about the server", Arguments: "[section [section ...]]", Since: "1.0.0", Group: "server"},
	{Command: "LASTSAVE", Summary: "Get the UNIX time stamp of the last successful save to disk", Since: "1.0.0", Group: "server"},
	{Command: "MEMORY USAGE", Summary: "Estimate the memory usage of a key", Arguments: "key [SAMPLES count]", Since: "4.0.0", Group: "server"},
	{Command: "SAVE", Summary: "Synchronously save the dataset to disk", Since: "1.0.0", Group: "server"},
	{Command: "SHUTDOWN", Summary: "Synchronously save the dataset to disk and then shut down the server", Arguments: "[NOSAVE|SAVE] [NOW] [FORCE] [ABORT]", Since: "1.0.0", Group: "server"},
	{Command: "SLOWLOG GET", Summary: "Get the slow log's entries", Arguments: "[count]", Since: "2.2.12", Group: "server"},
	{Command: "TIME", Summary: "Return the current server time", Since: "2.6.0", Group: "server"},
}

// application commands are handled by the REPL and never reach the server.
var application = []CommandDoc{
	{Command: "CLEAR", Summary: "Clear the screen", Group: "application"},
	{Command: "CONNECT", Summary: "Connect to a Redis server", Arguments: "[host] [port] [user] [pass]", Group: "application"},
	{Command: "EXIT", Summary: "Exit the application", Group: "application"},
	{Command: "EXPORT", Summary: "Export the result of a command to a file", Arguments: "file command [args...]", Group: "application"},
	{Command: "HELP", Summary: "Show help for a command", Arguments: "[command]", Group: "application"},
	{Command: "PIPE", Summary: "Send several commands in one write and print every reply", Arguments: "command [; command ...]", Group: "application"},
	{Command: "SAFEKEYS", Summary: "Safely iterate over keys using SCAN", Arguments: "[pattern]", Group: "application"},
	{Command: "STATS", Summary: "Show client counters for the current connection", Group: "application"},
	{Command: "VIEW", Summary: "View the contents of a key", Arguments: "key", Group: "application"},
}

// dangerous commands ask for confirmation before they are sent.
var dangerous = []string{
	"FLUSHDB", "FLUSHALL", "KEYS", "PEXPIRE", "DEL", "CONFIG",
	"SHUTDOWN", "BGREWRITEAOF", "BGSAVE", "SAVE", "SPOP", "SREM",
	"RENAME", "DEBUG",
}

// blocking commands may legitimately wait past the REPL's reply timeout.
var blocking = []string{"BLPOP", "BRPOP", "BZPOPMIN", "BZPOPMAX", "XREAD"}
