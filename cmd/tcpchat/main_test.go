package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	require.Equal(t, version+"\n", out.String())
}

func TestServeRejectsArguments(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"serve", "extra"})

	require.Error(t, root.Execute())
}

func TestServeFlagsRegistered(t *testing.T) {
	cmd := newServeCmd()
	for _, name := range []string{"config", "env-file", "host", "port", "log-level", "admin-addr"} {
		require.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}
