package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"rescribe/internal/app"
)

// runner builds the services lazily so that --help needs no connections
type runner struct {
	build func(ctx context.Context) (*app.App, error)
	out   io.Writer
}

func (r *runner) with(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) (any, error)) error {
	ctx := cmd.Context()
	a, err := r.build(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := fn(ctx, a)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func newRootCommand(r *runner) *cobra.Command {
	root := &cobra.Command{
		Use:   "rescribectl",
		Short: "Maintenance commands for the reScribe document store and search index",
		Long: `Maintenance commands for reScribe.

Writes go to the document store first and the search index second, so a
failure between the two leaves them diverged. These commands repair the
index and counters, and run deletions outside the HTTP API.`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newReconcileCommand(r),
		newSweepCommand(r),
		newDeleteRepositoryCommand(r),
		newDeleteProjectCommand(r),
	)
	return root
}

func newReconcileCommand(r *runner) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "reconcile [repository-id]",
		Short: "Recompute counters and remove orphaned index documents",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New("pass a repository id or --all")
			}
			return r.with(cmd, func(ctx context.Context, a *app.App) (any, error) {
				if all {
					return a.Reconciler.ReconcileAll(ctx)
				}
				return a.Reconciler.ReconcileRepository(ctx, args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Reconcile every repository")
	return cmd
}

func newSweepCommand(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep <repository-id>",
		Short: "Delete every index document left for a deleted repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, a *app.App) (any, error) {
				n, err := a.Reconciler.SweepRepository(ctx, args[0])
				if err != nil {
					return nil, err
				}
				return map[string]int{"deleted": n}, nil
			})
		},
	}
}

func newDeleteRepositoryCommand(r *runner) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "delete-repository <repository-id>",
		Short: "Delete a repository with its files, folders and media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, a *app.App) (any, error) {
				if err := a.Deletion.DeleteRepository(ctx, userID, args[0]); err != nil {
					return nil, fmt.Errorf("delete repository %s: %w", args[0], err)
				}
				return map[string]string{"deleted": args[0]}, nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User the deletion runs as (needs admin)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newDeleteProjectCommand(r *runner) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "delete-project <project-id>",
		Short: "Delete a project and cascade to its repositories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, a *app.App) (any, error) {
				if err := a.Deletion.DeleteProject(ctx, userID, args[0]); err != nil {
					return nil, fmt.Errorf("delete project %s: %w", args[0], err)
				}
				return map[string]string{"deleted": args[0]}, nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User the deletion runs as (needs admin)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
