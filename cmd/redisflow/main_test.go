//go:build integration

package main

import (
	"bytes"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOneShotCommand needs a Redis server on 127.0.0.1:6379.
func TestOneShotCommand(t *testing.T) {
	cmd := exec.Command("go", "run", "./cmd/redisflow", "--command", "PING")
	cmd.Dir = "../../"
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	require.NoError(t, cmd.Run(), "stderr: %s", stderr.String())
	assert.Equal(t, "PONG", strings.TrimSpace(stdout.String()))
}
