package annotation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/vitalvas/autoswag/directive"
)

// ErrMissingSourceFile is logged when an action's source file cannot be read.
// It is never returned to callers.
var ErrMissingSourceFile = errors.New("source file not found")

// Extractor finds and parses directive blocks. Each source file is read and
// split into comment blocks at most once per Extractor, and a file that could
// not be read is not retried; the cache is never invalidated. An Extractor is
// not safe for concurrent use.
type Extractor struct {
	parser  *directive.Parser
	logger  *zap.Logger
	cache   map[string][]commentBlock
	missing map[string]struct{}
}

// New creates an extractor dispatching matched lines to parser.
func New(parser *directive.Parser, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		parser:  parser,
		logger:  logger,
		cache:   make(map[string][]commentBlock),
		missing: make(map[string]struct{}),
	}
}

// Extract returns the operation described by the block comment whose first
// line is exactly "@<action>". When several blocks match, the last one wins.
// A missing file or an unmatched action yields an empty operation; the only
// error is a cancelled context.
func (e *Extractor) Extract(ctx context.Context, path, action string) (*directive.Operation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blocks, ok := e.blocks(path)
	if !ok {
		return &directive.Operation{}, nil
	}

	marker := "@" + action
	var matched commentBlock
	for _, block := range blocks {
		if block[0] == marker {
			matched = block
		}
	}
	if matched == nil {
		e.logger.Debug("no annotations for action",
			zap.String("file", path),
			zap.String("action", action),
		)
		return &directive.Operation{}, nil
	}

	return e.parser.Parse(matched[1:]), nil
}

// Cached reports how many files have been read so far. Files that failed to
// read are not counted.
func (e *Extractor) Cached() int {
	return len(e.cache)
}

func (e *Extractor) blocks(path string) ([]commentBlock, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}

	if blocks, ok := e.cache[abs]; ok {
		return blocks, true
	}
	if _, ok := e.missing[abs]; ok {
		return nil, false
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %s", ErrMissingSourceFile, abs)
		}
		e.logger.Warn("failed to read annotation source", zap.String("file", abs), zap.Error(err))
		e.missing[abs] = struct{}{}
		return nil, false
	}

	blocks := blockComments(string(data))
	e.cache[abs] = blocks
	return blocks, true
}
