package main

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/nao1215/scrapesynth/internal/config"
)

func TestNewServeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()
	if cmd.Use != "serve" {
		t.Errorf("expected use 'serve', got %q", cmd.Use)
	}

	listen := cmd.Flags().Lookup("listen")
	if listen == nil {
		t.Fatal("expected listen flag")
	}
	if listen.Shorthand != "l" || listen.DefValue != config.DefaultListenAddress {
		t.Errorf("listen flag = -%s default %q", listen.Shorthand, listen.DefValue)
	}
	for _, name := range []string{"api-key", "proxy", "tor", "models", "fallback-model", "db-dir", "no-history"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

func TestServeCmd_InvalidConfig(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"-n", "0", "--no-history"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "configuration error") {
		t.Errorf("expected a configuration error, got %v", err)
	}
}

func TestServeCmd_ProxyAndTor(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--tor", "--proxy", "127.0.0.1:9050", "--no-history"})
	if err := cmd.Execute(); !errors.Is(err, config.ErrConflictingProxy) {
		t.Errorf("expected ErrConflictingProxy, got %v", err)
	}
}
