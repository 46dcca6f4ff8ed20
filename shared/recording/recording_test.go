package recording

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/apistol78/replica/shared/messages"
)

func TestRecorder_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	entries := []Entry{
		{Tick: 1, Spawn: &messages.SpawnEvent{NetworkID: 3, SchemaID: 11, Kind: "body"}},
		{Tick: 2, Update: &messages.StateUpdate{NetworkID: 3, SchemaID: 11, Sequence: 1, Time: 0.05, Payload: []byte{0xde, 0xad, 0x01}}},
		{Tick: 9, Despawn: &messages.DespawnEvent{NetworkID: 3}},
	}
	for _, e := range entries {
		if err := rec.Write(e); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := rec.Write(entries[0]); err == nil {
		t.Fatalf("expected error writing after Close")
	}

	p, err := NewPlayer(&buf)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	defer p.Close()

	for i, want := range entries {
		got, err := p.Next()
		if err != nil {
			t.Fatalf("entry %d: %v", i, err)
		}
		if got.Tick != want.Tick {
			t.Fatalf("entry %d: tick %d, want %d", i, got.Tick, want.Tick)
		}
	}
	if _, err := p.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestRecorder_PayloadSurvives(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions", "a.jsonl.zst")
	rec, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	payload := []byte{0, 1, 2, 0xff}
	if err := rec.Write(Entry{Update: &messages.StateUpdate{Sequence: 7, Baseline: 5, Payload: payload}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	p, err := NewPlayer(f)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	defer p.Close()
	e, err := p.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if e.Update == nil || e.Update.Baseline != 5 || !bytes.Equal(e.Update.Payload, payload) {
		t.Fatalf("update = %+v", e.Update)
	}
}
