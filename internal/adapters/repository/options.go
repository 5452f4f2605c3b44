package repository

import (
	"os"

	"github.com/okian/badgeboard/pkg/logger"
)

const defaultFileMode os.FileMode = 0o644

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithLogger sets the logger used for skipped lines and append failures.
func WithLogger(l logger.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.log = l
		}
	}
}

// WithFileMode sets the permissions used when Append creates the log.
func WithFileMode(mode os.FileMode) Option {
	return func(s *FileStore) {
		if mode != 0 {
			s.mode = mode
		}
	}
}
