// Package config holds the connection settings shared by the client library
// and the redisflow binary.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 6379
	DefaultConnectTimeout = time.Second
	DefaultEncoding       = "latin1"
)

// Config describes how to reach and authenticate with a server.
type Config struct {
	Host           string
	Port           int
	ConnectTimeout time.Duration

	// Encoding names the charset used to turn string arguments into bytes
	// and bulk replies back into strings. Any WHATWG label is accepted.
	Encoding string

	// Username is only sent when Password is set (AUTH user pass).
	Username string
	Password string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		ConnectTimeout: DefaultConnectTimeout,
		Encoding:       DefaultEncoding,
	}
}

// BindFlags registers command line flags that write into c. Values already
// in c become the flag defaults.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Host, "host", "H", c.Host, "Redis server host")
	fs.IntVarP(&c.Port, "port", "p", c.Port, "Redis server port")
	fs.DurationVar(&c.ConnectTimeout, "connect-timeout", c.ConnectTimeout, "Time allowed to establish the connection")
	fs.StringVar(&c.Encoding, "encoding", c.Encoding, "Charset for string arguments and replies (latin1, utf-8, ascii, ...)")
	fs.StringVarP(&c.Username, "username", "u", c.Username, "Redis ACL username")
	fs.StringVar(&c.Password, "password", c.Password, "Redis password")
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate reports every problem with c at once.
func (c Config) Validate() (err error) {
	if strings.TrimSpace(c.Host) == "" {
		err = multierr.Append(err, errors.New("host is empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.ConnectTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("connect timeout must be positive, got %s", c.ConnectTimeout))
	}
	if _, cerr := c.Charset(); cerr != nil {
		err = multierr.Append(err, cerr)
	}
	if c.Username != "" && c.Password == "" {
		err = multierr.Append(err, errors.New("username given without password"))
	}
	return err
}

// Charset resolves Encoding. An empty name means DefaultEncoding.
func (c Config) Charset() (encoding.Encoding, error) {
	name := strings.TrimSpace(c.Encoding)
	if name == "" {
		name = DefaultEncoding
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", c.Encoding, err)
	}
	return enc, nil
}
