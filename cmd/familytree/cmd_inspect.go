package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gotrabandhus/internal/domain"
)

// =============================================================================
// VALIDATE
// =============================================================================

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that every relation is mirrored and points at a known person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.readGraph(a.file)
			if err != nil {
				return err
			}

			violations := domain.Validate(g)
			out := cmd.OutOrStdout()
			for _, v := range violations {
				fmt.Fprintln(out, v.String())
			}
			if len(violations) > 0 {
				return fmt.Errorf("%d relation problem(s) in %s", len(violations), a.file)
			}
			fmt.Fprintf(out, "%s: %d members, relations consistent\n", a.file, g.Len())
			return nil
		},
	}
}

// =============================================================================
// SHOW
// =============================================================================

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "List every person, or print one person as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.readGraph(a.file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				node, ok := g.FindByID(args[0])
				if !ok {
					return &domain.NotFoundError{ID: args[0]}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(node)
			}

			for _, node := range g.Nodes() {
				fmt.Fprintf(out, "%s\t%s\t%s\n", node.ID, displayName(node), describeRels(node.Rels))
			}
			return nil
		},
	}
}

func displayName(node *domain.PersonNode) string {
	if name := node.DisplayName(); name != "" {
		return name
	}
	return "(unnamed)"
}

func describeRels(r domain.Relations) string {
	var parts []string
	if r.Father != "" {
		parts = append(parts, "father="+r.Father)
	}
	if r.Mother != "" {
		parts = append(parts, "mother="+r.Mother)
	}
	if len(r.Spouses) > 0 {
		parts = append(parts, "spouses="+strings.Join(r.Spouses, ","))
	}
	if len(r.Children) > 0 {
		parts = append(parts, "children="+strings.Join(r.Children, ","))
	}
	return strings.Join(parts, " ")
}

// =============================================================================
// CONVERT
// =============================================================================

func newConvertCmd(a *app) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Re-encode a document, e.g. JSON to YAML",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.readGraph(args[0])
			if err != nil {
				return err
			}
			return a.writeGraph(args[1], to, g)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Output format (default: from the output extension)")
	return cmd
}
