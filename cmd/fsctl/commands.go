package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fileshare/internal/auth"
	"fileshare/internal/config"
	"fileshare/internal/database"
	"fileshare/internal/database/migration"
	"fileshare/internal/reconcile"
	"fileshare/internal/repository/relational"
	"fileshare/internal/service"
	"fileshare/internal/storage"
)

// errDrift makes reconcile exit non-zero when drift remains.
var errDrift = errors.New("storage and records disagree")

func newRootCmd(cfg *config.AppConfig, logger *zap.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "fsctl",
		Short:         "Operator tools for the fileshare service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCreateAdminCmd(cfg, logger), newReconcileCmd(cfg, logger))
	return root
}

func openDB(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*sql.DB, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := migration.EnsureMigrated(ctx, db, cfg.Database.Driver, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newCreateAdminCmd(cfg *config.AppConfig, logger *zap.Logger) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := openDB(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			// Tokens are never issued here, so the issuer only needs a placeholder key.
			tokens, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: "fsctl"})
			if err != nil {
				return err
			}
			svc, err := service.NewAuthService(relational.NewUserRepository(db), auth.NewPasswordHasher(cfg.Auth.BcryptCost), tokens)
			if err != nil {
				return err
			}

			u, err := svc.CreateAdmin(ctx, username, password)
			if err != nil {
				logger.Error("create_admin_failed", zap.String("username", username), zap.Error(err))
				return err
			}
			logger.Info("admin_created", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %q (id %d)\n", u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newReconcileCmd(cfg *config.AppConfig, logger *zap.Logger) *cobra.Command {
	var opts reconcile.Options

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Report (and optionally remove) bytes without records and records without bytes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := openDB(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			store, err := storage.New(cfg.Storage)
			if err != nil {
				return err
			}

			rep, err := reconcile.Run(ctx, store, relational.NewFileRepository(db), opts, logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, k := range rep.OrphanedObjects {
				fmt.Fprintf(out, "orphaned\t%s\n", k)
			}
			for _, k := range rep.MissingObjects {
				fmt.Fprintf(out, "missing\t%s\n", k)
			}
			for _, k := range rep.Pending {
				fmt.Fprintf(out, "pending\t%s\n", k)
			}
			for _, k := range rep.Removed {
				fmt.Fprintf(out, "removed\t%s\n", k)
			}
			for _, f := range rep.Failures {
				fmt.Fprintf(out, "failed\t%s\t%v\n", f.Key, f.Err)
			}

			if len(rep.Failures) > 0 || len(rep.MissingObjects) > 0 ||
				(!opts.Remove && len(rep.OrphanedObjects) > 0) {
				return errDrift
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.Remove, "remove", false, "delete orphaned objects")
	cmd.Flags().DurationVar(&opts.MinAge, "min-age", reconcile.DefaultMinAge, "ignore unrecorded objects modified more recently than this")
	return cmd
}
