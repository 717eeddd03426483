package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gotrabandhus/internal/domain"
)

// =============================================================================
// INIT
// =============================================================================

func newInitCmd(a *app) *cobra.Command {
	var (
		id    string
		sets  []string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a document holding a single root person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.file); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", a.file)
			}
			attrs, err := parseSets(sets)
			if err != nil {
				return err
			}
			if id == "" {
				id = a.ids.NewID()
			}

			g := domain.NewFamilyGraph()
			g.Put(domain.NewPersonNode(id, attrs))
			if err := a.writeGraph(a.file, a.format, g); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Id of the root person (default: generated)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Attribute as key=value (repeatable)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing document")
	return cmd
}

// =============================================================================
// ADD
// =============================================================================

func newAddCmd(a *app) *cobra.Command {
	var (
		relation string
		sets     []string
	)

	cmd := &cobra.Command{
		Use:   "add <anchor-id>",
		Short: "Add a child, spouse or parent of an existing person",
		Long: `Adds a new person related to the anchor and prints the new id.

A child gets the anchor and the anchor's first spouse as parents. A spouse
adopts the anchor's children and defaults to the anchor's opposite gender.
A parent becomes the anchor's mother when gender=F, otherwise the father,
replacing any parent already in that slot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseRelationKind(relation)
			if err != nil {
				return err
			}
			attrs, err := parseSets(sets)
			if err != nil {
				return err
			}

			g, err := a.readGraph(a.file)
			if err != nil {
				return err
			}
			next, id, err := domain.AddMember(g, a.ids, args[0], attrs, kind)
			if err != nil {
				return err
			}
			if err := a.writeGraph(a.file, a.format, next); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&relation, "relation", "r", string(domain.RelationChild),
		"Relation to the anchor: child, spouse or parent")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Attribute as key=value (repeatable)")
	return cmd
}

// =============================================================================
// UPDATE
// =============================================================================

func newUpdateCmd(a *app) *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Merge attributes into a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(sets) == 0 {
				return errors.New("nothing to update: pass at least one --set key=value")
			}
			attrs, err := parseSets(sets)
			if err != nil {
				return err
			}

			g, err := a.readGraph(a.file)
			if err != nil {
				return err
			}
			next, err := domain.UpdateMember(g, args[0], attrs)
			if err != nil {
				return err
			}
			return a.writeGraph(a.file, a.format, next)
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "Attribute as key=value (repeatable)")
	return cmd
}

// =============================================================================
// DELETE
// =============================================================================

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a person and every reference to them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.readGraph(a.file)
			if err != nil {
				return err
			}
			next, err := domain.DeleteMember(g, args[0])
			if err != nil {
				return err
			}
			return a.writeGraph(a.file, a.format, next)
		},
	}
}
