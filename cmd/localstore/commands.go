package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/anonto42/nano-midea/localstore/internal/export"
	"github.com/anonto42/nano-midea/localstore/internal/models"
	"github.com/anonto42/nano-midea/localstore/internal/store"
	apperrors "github.com/anonto42/nano-midea/localstore/pkg/errors"
	"github.com/anonto42/nano-midea/localstore/pkg/logger"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the number of records in each collection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats := a.store.Stats(cmd.Context())
			keys := make([]string, 0, len(stats))
			for k := range stats {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			out := cmd.OutOrStdout()
			for _, k := range keys {
				fmt.Fprintf(out, "%-15s %d\n", k, stats[k])
			}
			if u := store.NewRecord[models.User](a.store, store.KeyCurrentUser).Get(cmd.Context()); u != nil {
				fmt.Fprintf(out, "%-15s %s\n", store.KeyCurrentUser, u.Username)
			}
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the app's collections and session, keeping unrelated keys",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.store.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleared app data")
			return nil
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe every key in the backend, including keys the app does not own",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("reset deletes everything in the backend; pass --yes to confirm")
			}
			if err := a.store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "backend reset")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every collection to an xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := export.WriteWorkbook(cmd.Context(), a.store, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.Info("workbook exported", "path", out)
			fmt.Fprintln(cmd.OutOrStdout(), "exported to", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "localstore.xlsx", "output file")
	return cmd
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create demo users alice and bob, a post and some activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := a.services()
			if err != nil {
				return err
			}

			alice, _, err := svc.Accounts.Register(ctx, "alice@example.com", "alice", "alice123")
			if apperrors.HasCode(err, apperrors.ErrCodeAlreadyExists) {
				fmt.Fprintln(cmd.OutOrStdout(), "demo data already present")
				return nil
			}
			if err != nil {
				return err
			}
			bob, _, err := svc.Accounts.Register(ctx, "bob@example.com", "bob", "bob123")
			if err != nil {
				return err
			}

			name := "Alice"
			if _, err := svc.Accounts.UpdateProfile(ctx, alice, models.UserPatch{DisplayName: &name}); err != nil {
				return err
			}
			req, err := svc.Friends.SendFriendRequest(ctx, alice, bob.Username)
			if err != nil {
				return err
			}
			if _, err := svc.Friends.AcceptFriendRequest(ctx, req.ID); err != nil {
				return err
			}
			post, err := svc.Feed.CreatePost(ctx, alice, nil, "Hello from the local store")
			if err != nil {
				return err
			}
			if _, err := svc.Feed.ToggleLike(ctx, bob, post.ID); err != nil {
				return err
			}
			if _, err := svc.Feed.AddComment(ctx, bob, post.ID, "nice!"); err != nil {
				return err
			}
			if _, err := svc.Messages.Send(ctx, bob, alice.Username, "welcome!"); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "seeded demo users alice and bob")
			return nil
		},
	}
}
