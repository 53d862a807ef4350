package log

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"
)

// SplitAudit is one handled split attempt.
type SplitAudit struct {
	AttemptID    string       `json:"attempt_id"`
	Tick         uint64       `json:"tick"`
	Actor        string       `json:"actor"`
	Oven         string       `json:"oven"`
	OvenKind     string       `json:"oven_kind"`
	Item         string       `json:"item"`
	SourceBefore int          `json:"source_before"`
	SlotBudget   int          `json:"slot_budget"`
	SlotCount    int          `json:"slot_count"`
	ExistingSum  int          `json:"existing_sum"`
	Total        int          `json:"total"`
	Base         int          `json:"base"`
	Remainder    int          `json:"remainder"`
	Partial      bool         `json:"partial,omitempty"`
	Entries      []AuditEntry `json:"entries"`
	Moved        int          `json:"moved"`
	SourceAfter  int          `json:"source_after"`
	Error        string       `json:"error,omitempty"`
}

type AuditEntry struct {
	Slot     int `json:"slot"`
	Existing int `json:"existing"`
	Delta    int `json:"delta"`
}

// AuditLogger writes split audit records under <dir>/audit.
type AuditLogger struct{ w *JSONLZstdWriter }

func NewAuditLogger(dataDir string) *AuditLogger {
	return NewAuditLoggerWithOptions(dataDir, WriterOptions{})
}

func NewAuditLoggerWithOptions(dataDir string, opts WriterOptions) *AuditLogger {
	return &AuditLogger{w: NewJSONLZstdWriterWithOptions(filepath.Join(dataDir, "audit"), "audit", opts)}
}

func (l *AuditLogger) WriteSplit(v SplitAudit) error { return l.w.Write(v) }
func (l *AuditLogger) Close() error                  { return l.w.Close() }

// AuditFiles lists the audit files under dataDir in chronological order.
func AuditFiles(dataDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dataDir, "audit", "audit-*.jsonl.zst"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ReadAudit decodes every record of one audit file, calling fn in order.
// Returning a non-nil error from fn stops the read.
func ReadAudit(path string, fn func(SplitAudit) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	r := bufio.NewReaderSize(dec, 128*1024)
	line := 0
	for {
		b, err := r.ReadBytes('\n')
		if errors.Is(err, io.ErrUnexpectedEOF) {
			// The current hour is still being written; drop the unterminated tail.
			return nil
		}
		if len(b) > 0 {
			line++
			var rec SplitAudit
			if uerr := json.Unmarshal(b, &rec); uerr != nil {
				return fmt.Errorf("%s:%d: %w", filepath.Base(path), line, uerr)
			}
			if ferr := fn(rec); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
