// Package importer turns a stream of raw CSV lines into Log Record inserts.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/darianmavgo/growlog/record"
	"github.com/darianmavgo/growlog/source"
	"github.com/darianmavgo/growlog/store/common"
)

var ErrInterrupted = errors.New("operation interrupted by user")

// ImportOptions defines configuration for the import process.
type ImportOptions struct {
	// BatchSize is the number of rows committed per transaction. Values <= 1
	// commit every row on its own, so every row before a failure persists.
	BatchSize int
	Progress  io.Writer    // Receives "Processing <file>" lines; nil discards them
	Logger    *slog.Logger // Defaults to slog.Default()
}

// LineError locates the input line a failure happened on.
type LineError struct {
	File string
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Import inserts every line of lines into st, in order, and returns the number
// of rows inserted. The first failure aborts the rest of the import; rows
// committed before it stay in the store and are included in the count.
func Import(ctx context.Context, st common.Store, lines source.LineSource, opts *ImportOptions) (int64, error) {
	if opts == nil {
		opts = &ImportOptions{}
	}
	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		inserted int64
		pending  [][]string
		origins  []source.Line // where each pending row was read
	)

	flush := func(ctx context.Context) error {
		if len(pending) == 0 {
			return nil
		}
		n, err := st.InsertBatch(ctx, pending)
		if err != nil {
			at := origins[0]
			var re *common.RowError
			if errors.As(err, &re) && re.Row >= 0 && re.Row < len(origins) {
				at = origins[re.Row]
			}
			return &LineError{File: at.File, Line: at.Number, Err: err}
		}
		inserted += n
		logger.Debug("committed batch", "rows", len(pending), "total", inserted)
		pending = pending[:0]
		origins = origins[:0]
		return nil
	}

	for {
		if ctx.Err() != nil {
			// Commit what we have, then stop.
			if err := flush(context.WithoutCancel(ctx)); err != nil {
				return inserted, err
			}
			logger.Warn("import interrupted", "rows_inserted", inserted)
			return inserted, ErrInterrupted
		}

		line, err := lines.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return inserted, err
		}

		if line.Number == 1 {
			fmt.Fprintf(progress, "Processing %s\n", line.File)
			logger.Info("processing file", "file", line.File)
		}

		fields := record.Split(line.Text)

		if opts.BatchSize <= 1 {
			n, err := st.Insert(ctx, fields)
			if err != nil {
				return inserted, &LineError{File: line.File, Line: line.Number, Err: err}
			}
			inserted += n
			continue
		}

		pending = append(pending, fields)
		origins = append(origins, line)
		if len(pending) >= opts.BatchSize {
			if err := flush(ctx); err != nil {
				return inserted, err
			}
		}
	}

	if err := flush(ctx); err != nil {
		return inserted, err
	}
	logger.Debug("import finished", "rows_inserted", inserted)
	return inserted, nil
}
