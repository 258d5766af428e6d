package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry()

	doc := reg.Get("GET")
	require.NotNil(t, doc)
	assert.Equal(t, "GET", doc.Command)

	assert.Same(t, doc, reg.Get("get"))
	assert.Nil(t, reg.Get("NONEXISTENT_CMD_XYZ"))

	doc = reg.Get("CLIENT INFO")
	require.NotNil(t, doc)
	assert.Equal(t, "connection", doc.Group)

	doc = reg.Get("EXIT")
	require.NotNil(t, doc)
	assert.Equal(t, "application", doc.Group)
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, "CONFIG GET", reg.Lookup("CONFIG", []string{"get", "maxmemory"}).Command)
	assert.Equal(t, "GET", reg.Lookup("GET", []string{"info"}).Command)
	assert.Nil(t, reg.Lookup("NOPE", nil))
}

func TestRegistryFlags(t *testing.T) {
	reg := NewRegistry()

	assert.True(t, reg.IsDangerous("flushdb"))
	assert.False(t, reg.IsDangerous("GET"))

	assert.True(t, reg.IsBlocking("BLPOP"))
	assert.False(t, reg.IsBlocking("LPOP"))

	assert.True(t, reg.IsApplication("safekeys"))
	assert.True(t, reg.IsApplication("PIPE"))
	assert.False(t, reg.IsApplication("SCAN"))
}

func TestGetCommands(t *testing.T) {
	reg := NewRegistry()
	assert.Contains(t, reg.GetCommands("cli"), "CLIENT INFO")
	assert.Equal(t, []string{"HSCAN", "HSET", "HSETNX"}, reg.GetCommands("HS"))
	assert.Empty(t, reg.GetCommands("ZZZ"))
}

func TestMergeServerCommands(t *testing.T) {
	reg := NewRegistry()
	require.Nil(t, reg.Get("NEWCMD"))

	reg.MergeServerCommands([]ServerCommand{
		{Name: "NEWCMD", Arity: -2, ACLCats: []string{"@read", "@string"}},
		{Name: "GET", Arity: 2, ACLCats: []string{"@read", "@string"}},
		{
			Name: "MODULE", Arity: -2, ACLCats: []string{"@admin", "@slow"},
			Subcommands: []ServerCommand{{Name: "MODULE LIST", Arity: 2, ACLCats: []string{"@admin"}}},
		},
	})

	doc := reg.Get("NEWCMD")
	require.NotNil(t, doc)
	assert.Equal(t, "arg1 [arg ...]", doc.Arguments)
	assert.Equal(t, "string", doc.Group)

	assert.Equal(t, "Get the value of a key", reg.Get("GET").Summary)

	sub := reg.Get("module list")
	require.NotNil(t, sub)
	assert.Equal(t, "admin", sub.Group)
	assert.Equal(t, "arg1", sub.Arguments)
}

func TestArityHint(t *testing.T) {
	tests := []struct {
		arity int64
		want  string
	}{
		{0, ""},
		{1, ""},
		{2, "arg1"},
		{3, "arg1 arg2"},
		{-1, "[arg ...]"},
		{-3, "arg1 arg2 [arg ...]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, arityHint(tt.arity), "arity %d", tt.arity)
	}
}
