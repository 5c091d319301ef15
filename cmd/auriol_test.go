package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestDecode(t *testing.T) {
	var out bytes.Buffer
	c := &cli.App{
		Writer:   &out,
		Commands: []*cli.Command{{Name: "decode", Action: decode}},
	}

	if err := c.Run([]string{"auriol", "decode", "320505443208", "0x8"}); err != nil {
		t.Fatalf("decode unexpected error %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, expected 2: %q", len(lines), out.String())
	}
	for i, want := range []string{"0x4a9f9cf388: ", "0x0000000008: "} {
		if !strings.HasPrefix(lines[i], want) {
			t.Errorf("line %d = %q, expected prefix %q", i, lines[i], want)
		}
	}
	if !strings.HasSuffix(lines[0], ",trailer=8") {
		t.Errorf("line 0 = %q, expected trailer=8", lines[0])
	}

	if err := c.Run([]string{"auriol", "decode", "0x10000000000"}); err == nil {
		t.Error("decode expected error for a packet wider than 40 bits")
	}
}
