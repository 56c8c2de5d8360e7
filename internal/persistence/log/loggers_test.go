package log

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/offdroid/cobble/internal/sim/world"
)

func TestEditLogger_WriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	l := NewEditLogger(dir)

	entries := []world.AuditEntry{
		{At: time.Now().UTC(), Tick: 1, Kind: "place", X: 1, Y: 2, Z: 3, Block: 4, Applied: true},
		{At: time.Now().UTC(), Tick: 2, Kind: "break", X: 1, Y: 0, Z: 3, Applied: false, Reason: "world floor is locked"},
		{At: time.Now().UTC(), Tick: 3, Kind: "break", X: 5, Y: 7, Z: 5, Applied: true},
	}
	for _, e := range entries {
		if err := l.WriteEdit(e); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "edits", "edits-*.jsonl.zst"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("log files = %v (%v)", matches, err)
	}
	f, err := os.Open(matches[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	defer dec.Close()

	var got []world.AuditEntry
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var e world.AuditEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		got = append(got, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(got) != len(entries) {
		t.Fatalf("entries read = %d want %d", len(got), len(entries))
	}
	if got[1].Reason != "world floor is locked" || got[1].Applied {
		t.Fatalf("rejected entry did not round-trip: %+v", got[1])
	}
	if got[2].Tick != 3 || got[2].Kind != "break" {
		t.Fatalf("entry 2 did not round-trip: %+v", got[2])
	}
}
