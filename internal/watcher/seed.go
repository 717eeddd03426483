package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"gotrabandhus/internal/service"
)

// Importer stores a parsed export document as a tree
type Importer interface {
	Import(ctx context.Context, treeID, format string, data []byte, strategy string) (*service.ImportResult, error)
}

// Seeder loads an export document from disk into one tree
type Seeder struct {
	svc    Importer
	path   string
	treeID string
	format string
	logger *zap.Logger
}

// NewSeeder creates a seeder. An empty format is taken from the file extension.
func NewSeeder(svc Importer, path, treeID, format string, logger *zap.Logger) *Seeder {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		svc:    svc,
		path:   path,
		treeID: treeID,
		format: format,
		logger: logger.Named("seed"),
	}
}

// Load replaces the tree with the current file contents
func (s *Seeder) Load(ctx context.Context) (*service.ImportResult, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	result, err := s.svc.Import(ctx, s.treeID, s.format, data, service.StrategyReplace)
	if err != nil {
		return nil, fmt.Errorf("failed to import seed file %s: %w", s.path, err)
	}

	s.logger.Info("seed tree loaded",
		zap.String("path", s.path),
		zap.String("tree_id", s.treeID),
		zap.Int("members", result.Members))
	return result, nil
}

// Watch reloads the seed file whenever it changes, until ctx is done
func (s *Seeder) Watch(ctx context.Context) error {
	w := New(s.path, func() {
		if _, err := s.Load(ctx); err != nil {
			s.logger.Error("seed reload failed", zap.Error(err))
		}
	}, s.logger)
	return w.Watch(ctx)
}
