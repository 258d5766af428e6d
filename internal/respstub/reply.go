package respstub

import (
	"strconv"
	"strings"
)

// Reply builders. Each returns one complete frame.

const (
	OK        = "+OK\r\n"
	NullBulk  = "$-1\r\n"
	NullArray = "*-1\r\n"
)

func Simple(s string) string { return "+" + s + "\r\n" }

func Error(msg string) string { return "-" + msg + "\r\n" }

func Int(n int64) string { return ":" + strconv.FormatInt(n, 10) + "\r\n" }

func Bulk(s string) string {
	return "$" + strconv.Itoa(len(s)) + "\r\n" + s + "\r\n"
}

// Array wraps already-encoded frames.
func Array(frames ...string) string {
	return "*" + strconv.Itoa(len(frames)) + "\r\n" + strings.Join(frames, "")
}

// BulkArray is an array of bulk strings.
func BulkArray(items ...string) string {
	frames := make([]string, len(items))
	for i, s := range items {
		frames[i] = Bulk(s)
	}
	return Array(frames...)
}
