// Package recording persists the replication stream a server sends, as
// zstd-compressed JSON lines, so sessions can be replayed and measured
// offline.
package recording

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/apistol78/replica/shared/messages"
)

// Entry is one line of a recording. Exactly one of the message fields is set.
type Entry struct {
	Tick    uint64                 `json:"tick"`
	Spawn   *messages.SpawnEvent   `json:"spawn,omitempty"`
	Despawn *messages.DespawnEvent `json:"despawn,omitempty"`
	Update  *messages.StateUpdate  `json:"update,omitempty"`
}

// Recorder writes entries to a compressed stream. It is safe for concurrent
// use.
type Recorder struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewRecorder compresses onto w. Closing the recorder does not close w.
func NewRecorder(w io.Writer) (*Recorder, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	return &Recorder{enc: enc, w: bufio.NewWriterSize(enc, 64*1024)}, nil
}

// Create opens a recording file, creating parent directories.
func Create(path string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	r, err := NewRecorder(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.f = f
	return r, nil
}

func (r *Recorder) Write(e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return errors.New("recording: write after close")
	}
	if _, err := r.w.Write(b); err != nil {
		return err
	}
	return r.w.WriteByte('\n')
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	err1 := r.w.Flush()
	err2 := r.enc.Close()
	r.w = nil
	if r.f != nil {
		_ = r.f.Close()
		r.f = nil
	}
	return errors.Join(err1, err2)
}

// Player reads entries back in order.
type Player struct {
	dec  *zstd.Decoder
	sc   *bufio.Scanner
	line int
}

func NewPlayer(r io.Reader) (*Player, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	return &Player{dec: dec, sc: sc}, nil
}

// Next returns the next entry, or io.EOF at the end of the recording.
func (p *Player) Next() (Entry, error) {
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return Entry{}, err
		}
		return Entry{}, io.EOF
	}
	p.line++
	var e Entry
	if err := json.Unmarshal(p.sc.Bytes(), &e); err != nil {
		return Entry{}, fmt.Errorf("line %d: unmarshal: %w", p.line, err)
	}
	return e, nil
}

func (p *Player) Close() {
	p.dec.Close()
}
