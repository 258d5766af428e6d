// Package serializer holds the value codecs selected with the REPL's
// "#:name" suffix. A codec transforms a SET value before it is framed and a
// reply payload after it is decoded.
package serializer

import (
	"fmt"
	"slices"
	"strings"
)

// Serializer converts a payload to and from its stored form.
type Serializer interface {
	Serialize([]byte) ([]byte, error)
	Deserialize([]byte) ([]byte, error)
}

var codecs = map[string]Serializer{
	"base64": base64Serializer{},
	"gzip":   gzipSerializer{},
	"hex":    hexSerializer{},
	"snappy": snappySerializer{},
}

// Get returns the codec registered under name. Lookup ignores case.
func Get(name string) (Serializer, error) {
	if s, ok := codecs[strings.ToLower(name)]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("unknown serializer %q (have %s)", name, strings.Join(Names(), ", "))
}

// Names lists the registered codecs in sorted order.
func Names() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
