package repository

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/okian/badgeboard/internal/domain/model"
	"github.com/okian/badgeboard/pkg/logger"
	"github.com/okian/badgeboard/pkg/metrics"
)

// FileStore keeps one JSON object per line in a UTF-8 file.
type FileStore struct {
	path string
	mode os.FileMode
	log  logger.Logger

	// Serialises appends within the process. Each append is a single
	// write on an O_APPEND handle so readers only ever see whole lines.
	mu sync.Mutex
}

// NewFileStore creates a store over path. The file need not exist yet.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path: path,
		mode: defaultFileMode,
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path implements Store.
func (s *FileStore) Path() string { return s.path }

// ReadAll implements Store. A missing file reads as empty; undecodable
// lines are skipped.
func (s *FileStore) ReadAll(ctx context.Context) ([]model.Badge, error) {
	start := time.Now()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.Badge{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer f.Close()

	records := make([]positioned, 0)
	malformed := 0
	r := bufio.NewReader(f)
	for line := 0; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, readErr := r.ReadBytes('\n')
		if len(bytes.TrimSpace(raw)) > 0 {
			var b model.Badge
			if err := json.Unmarshal(raw, &b); err != nil {
				malformed++
				s.log.Debug(ctx, "skipping malformed line",
					logger.String("path", s.path),
					logger.Int("line", line+1),
					logger.Error(err))
			} else {
				records = append(records, positioned{badge: b, line: line})
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrRead, readErr)
		}
	}

	out := sortNewestFirst(records)
	metrics.RecordBadgesRead(len(out), malformed, float64(time.Since(start).Microseconds())/1000)
	return out, nil
}

// Append implements Store.
func (s *FileStore) Append(ctx context.Context, b model.Badge) error {
	start := time.Now()

	line, err := json.Marshal(b)
	if err != nil {
		metrics.RecordAppendError()
		return fmt.Errorf("%w: encode: %w", ErrAppend, err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, s.mode)
	if err != nil {
		metrics.RecordAppendError()
		s.log.Error(ctx, "open badge log failed", logger.String("path", s.path), logger.Error(err))
		return fmt.Errorf("%w: %w", ErrAppend, err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		metrics.RecordAppendError()
		s.log.Error(ctx, "write badge failed", logger.String("path", s.path), logger.Error(err))
		return fmt.Errorf("%w: %w", ErrAppend, err)
	}
	if err := f.Close(); err != nil {
		metrics.RecordAppendError()
		return fmt.Errorf("%w: %w", ErrAppend, err)
	}

	metrics.RecordBadgeAppended(float64(time.Since(start).Microseconds()) / 1000)
	s.log.Debug(ctx, "badge appended", logger.String("trainer", b.Trainer), logger.String("date", b.RawDate))
	return nil
}
