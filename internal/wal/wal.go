// Package wal implements the write-ahead log: an append-only,
// line-delimited, self-describing log of mutations, replayed on restart
// to reconstruct Catalog state.
package wal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vecdb-go/internal/apierr"
)

// RecordType tags which WalRecord variant a line carries.
type RecordType string

const (
	TypeCreateCollection RecordType = "CreateCollection"
	TypeUpsert           RecordType = "Upsert"
)

// Record is a tagged sum of the two mutation kinds the log can carry.
// Fields irrelevant to a variant are left zero-valued on encode and
// ignored on decode.
type Record struct {
	Type RecordType `json:"type"`

	// CreateCollection fields.
	Name   string `json:"name,omitempty"`
	Dim    int    `json:"dim,omitempty"`
	Metric string `json:"metric,omitempty"`

	// Upsert fields.
	Collection  string    `json:"collection,omitempty"`
	ID          string    `json:"id,omitempty"`
	Vector      []float32 `json:"vector,omitempty"`
	PayloadJSON string    `json:"payload_json,omitempty"`

	TsMs int64 `json:"ts_ms"`
}

// Wal is an append-only JSON-line log identified by a file path. It keeps
// no long-lived file handle: every Append reopens the file in append
// mode, and every Replay reopens it for reading.
type Wal struct {
	path string
}

// Open ensures the parent directory and the file itself exist, then
// returns a Wal bound to path. It keeps no open handle.
func Open(path string) (*Wal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apierr.Wrap(apierr.IoError, "failed to create WAL directory", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, apierr.Wrap(apierr.IoError, "failed to open WAL file", err)
	}
	if err := f.Close(); err != nil {
		return nil, apierr.Wrap(apierr.IoError, "failed to close WAL file after create", err)
	}

	return &Wal{path: path}, nil
}

// Append serializes record to one JSON line terminated by LF, opens the
// file in append mode, writes it, and flushes. The order of successful
// Append calls equals the order of lines in the file.
func (w *Wal) Append(record Record) error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return apierr.Wrap(apierr.IoError, "failed to open WAL for append", err)
	}
	defer f.Close()

	line, err := json.Marshal(record)
	if err != nil {
		return apierr.Wrap(apierr.Internal, "failed to marshal WAL record", err)
	}

	if _, err := f.Write(append(line, '\n')); err != nil {
		return apierr.Wrap(apierr.IoError, "failed to write WAL record", err)
	}
	return f.Sync()
}

// Replay streams the file line-by-line, skipping blank lines. It stops at
// the first malformed line and reports CorruptWal with the byte offset of
// that line's start; it never silently skips unknown records.
func (w *Wal) Replay() ([]Record, error) {
	f, err := os.Open(w.path)
	if err != nil {
		return nil, apierr.Wrap(apierr.IoError, "failed to open WAL for replay", err)
	}
	defer f.Close()

	var records []Record
	offset := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		lineLen := len(line) + 1 // account for the stripped newline
		if strings.TrimSpace(line) == "" {
			offset += lineLen
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return records, apierr.Wrap(apierr.CorruptWal, fmt.Sprintf("malformed WAL record at offset %d", offset), err)
		}
		records = append(records, rec)
		offset += lineLen
	}
	if err := scanner.Err(); err != nil {
		return records, apierr.Wrap(apierr.IoError, "failed to read WAL", err)
	}

	return records, nil
}
