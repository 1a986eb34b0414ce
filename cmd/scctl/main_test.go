package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/luciancaetano/scnet"
	"github.com/luciancaetano/scnet/client"
	"github.com/luciancaetano/scnet/internal/sctest"
)

func connectTest(t *testing.T, srv *sctest.Server) *client.Client {
	t.Helper()

	logger := zerolog.Nop()
	cfg := client.DefaultConfig()
	cfg.Logger = &logger
	cfg.ResponseTimeout = 2 * time.Second
	cfg.EstablishTimeout = 2 * time.Second

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close(context.Background()) })
	if err := c.Connect(context.Background(), srv.URL()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return c
}

// TestRunIgnoresExtraReplyItems tests that a server answering with more items than asked does not crash the CLI
func TestRunIgnoresExtraReplyItems(t *testing.T) {
	t.Parallel()

	srv := sctest.NewServer()
	defer srv.Close()
	srv.Handle(scnet.TypeKeynodes, func(req sctest.Request) (bool, any) { return true, []uint64{11, 12, 13} })
	srv.Handle(scnet.TypeCheckElements, func(req sctest.Request) (bool, any) { return true, []uint16{33, 65} })
	srv.Handle(scnet.TypeContent, func(req sctest.Request) (bool, any) { return true, [][]uint64{{1}, {2}} })

	c := connectTest(t, srv)

	tests := []struct {
		command string
		args    []string
		want    string
	}{
		{command: "keynodes", args: []string{"nrel_main_idtf"}, want: "nrel_main_idtf\t11\n"},
		{command: "types", args: []string{"7"}, want: "7\tConstNode\n"},
		{command: "search", args: []string{"text"}, want: "text\t[ScAddr(1)]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(context.Background(), c, &out, tt.command, tt.args); err != nil {
				t.Fatalf("run() error = %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestRunUnknownCommand(t *testing.T) {
	t.Parallel()

	srv := sctest.NewServer()
	defer srv.Close()
	c := connectTest(t, srv)

	err := run(context.Background(), c, &bytes.Buffer{}, "frobnicate", nil)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("run() error = %v", err)
	}
}

func TestParseAddrs(t *testing.T) {
	t.Parallel()

	addrs, err := parseAddrs([]string{"1", "42"})
	if err != nil || len(addrs) != 2 || addrs[1] != 42 {
		t.Errorf("parseAddrs() = %v, %v", addrs, err)
	}
	if _, err := parseAddrs(nil); err == nil {
		t.Error("parseAddrs(nil) succeeded")
	}
	if _, err := parseAddrs([]string{"-1"}); err == nil {
		t.Error("parseAddrs(-1) succeeded")
	}
}
