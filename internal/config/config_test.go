package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "127.0.0.1:6379", c.Addr())
	assert.Equal(t, time.Second, c.ConnectTimeout)
	require.NoError(t, c.Validate())

	cs, err := c.Charset()
	require.NoError(t, err)
	assert.Equal(t, charmap.Windows1252, cs)
}

func TestBindFlags(t *testing.T) {
	c := Default()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.BindFlags(fs)

	err := fs.Parse([]string{"-H", "cache.local", "-p", "7000", "--connect-timeout", "250ms", "--encoding", "utf-8", "-u", "app", "--password", "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, "cache.local:7000", c.Addr())
	assert.Equal(t, 250*time.Millisecond, c.ConnectTimeout)
	assert.Equal(t, "app", c.Username)
	assert.Equal(t, "s3cret", c.Password)

	cs, err := c.Charset()
	require.NoError(t, err)
	assert.Equal(t, unicode.UTF8, cs)
}

func TestAddrIPv6(t *testing.T) {
	c := Default()
	c.Host = "::1"
	assert.Equal(t, "[::1]:6379", c.Addr())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errs   int
	}{
		{name: "Valid", mutate: func(*Config) {}, errs: 0},
		{name: "Empty host", mutate: func(c *Config) { c.Host = " " }, errs: 1},
		{name: "Bad port", mutate: func(c *Config) { c.Port = 70000 }, errs: 1},
		{name: "Zero timeout", mutate: func(c *Config) { c.ConnectTimeout = 0 }, errs: 1},
		{name: "Unknown encoding", mutate: func(c *Config) { c.Encoding = "klingon" }, errs: 1},
		{name: "Username without password", mutate: func(c *Config) { c.Username = "app" }, errs: 1},
		{
			name: "Several problems",
			mutate: func(c *Config) {
				c.Host = ""
				c.Port = 0
				c.Encoding = "nope"
			},
			errs: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			assert.Len(t, multierr.Errors(err), tt.errs)
		})
	}
}

func TestCharsetEmptyName(t *testing.T) {
	c := Config{}
	cs, err := c.Charset()
	require.NoError(t, err)
	assert.Equal(t, charmap.Windows1252, cs)
}
