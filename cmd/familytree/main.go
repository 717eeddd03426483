// Command familytree edits family tree export documents on disk.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gotrabandhus/internal/codec"
	"gotrabandhus/internal/domain"
	"gotrabandhus/internal/logging"
)

// =============================================================================
// ROOT COMMAND
// =============================================================================

// app carries the state shared by every subcommand
type app struct {
	file    string
	format  string
	verbose bool

	ids    domain.IDGenerator
	logger *zap.Logger
}

func main() {
	if err := newRootCmd(&app{ids: domain.UUIDGenerator{}}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "familytree",
		Short: "Edit GotraBandhus family tree documents",
		Long: `familytree reads a family tree export document (JSON or YAML), applies
one edit and writes the document back.

Examples:
  familytree -f family.json init --id me --set "first name=Ravi" --set gender=M
  familytree -f family.json add me --relation spouse --set "first name=Sita"
  familytree -f family.json update me --set birthday=1980-02-01
  familytree -f family.json validate
  familytree convert family.json family.yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := "warn"
			if a.verbose {
				level = "debug"
			}
			logger, err := logging.New(level, "console")
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.file, "file", "f", "family.json",
		"Tree document to read and write")
	root.PersistentFlags().StringVar(&a.format, "format", "",
		"Document format (json or yaml); default from the file extension")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"Log document reads and writes")

	root.AddCommand(
		newInitCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newValidateCmd(a),
		newShowCmd(a),
		newConvertCmd(a),
	)
	return root
}

// =============================================================================
// DOCUMENT HELPERS
// =============================================================================

// codecFor picks the codec from an explicit format or the path's extension
func codecFor(format, path string) (codec.Codec, error) {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	return codec.Lookup(format)
}

func (a *app) readGraph(path string) (*domain.FamilyGraph, error) {
	c, err := codecFor(a.format, path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	g, err := c.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	a.logger.Debug("read tree", zap.String("path", path), zap.Int("members", g.Len()))
	return g, nil
}

// writeGraph replaces path with the encoded graph via a temp file rename
func (a *app) writeGraph(path, format string, g *domain.FamilyGraph) error {
	c, err := codecFor(format, path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := c.Export(g, &buf); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	a.logger.Debug("wrote tree",
		zap.String("path", path),
		zap.Int("members", g.Len()),
		zap.String("digest", codec.Digest(buf.Bytes())))
	return nil
}

// parseSets turns repeated key=value flags into attributes
func parseSets(sets []string) (domain.Attributes, error) {
	attrs := make(domain.Attributes, len(sets))
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", kv)
		}
		attrs[key] = value
	}
	return attrs, nil
}
