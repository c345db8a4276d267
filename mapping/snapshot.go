package mapping

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// snapshotVersion is bumped whenever the descriptor encoding changes.
const snapshotVersion = 1

type snapshot struct {
	Version  int       `msgpack:"v"`
	Database *Database `msgpack:"db"`
}

// ErrSnapshotVersion is returned when decoding a snapshot written by an
// incompatible version.
var ErrSnapshotVersion = errors.New("mapping: incompatible snapshot version")

// EncodeSnapshot writes db to w in the msgpack snapshot format.
func EncodeSnapshot(w io.Writer, db *Database) error {
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	if err := enc.Encode(&snapshot{Version: snapshotVersion, Database: db}); err != nil {
		return fmt.Errorf("mapping: encode snapshot: %w", err)
	}
	return nil
}

// DecodeSnapshot reads a descriptor tree written by EncodeSnapshot.
func DecodeSnapshot(r io.Reader) (*Database, error) {
	var s snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("mapping: decode snapshot: %w", err)
	}
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, s.Version)
	}
	if s.Database == nil {
		return nil, fmt.Errorf("mapping: decode snapshot: missing database")
	}
	return s.Database, nil
}

// MarshalSnapshot returns the snapshot encoding of db.
func MarshalSnapshot(db *Database) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, db); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalSnapshot decodes a snapshot produced by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (*Database, error) {
	return DecodeSnapshot(bytes.NewReader(data))
}
