package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flicky/storefront-api/internal/config"
	"github.com/flicky/storefront-api/internal/logging"
	"github.com/flicky/storefront-api/internal/repository"
	"github.com/flicky/storefront-api/internal/service"
)

// storefront seed-admin: create the admin account from ADMIN_EMAIL/ADMIN_PASSWORD.
var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the admin account if it does not exist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Admin.Email == "" || cfg.Admin.Password == "" {
			return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
		}
		log := logging.New(os.Stdout, cfg.Log.Level)

		ctx := cmd.Context()
		client, err := repository.Connect(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(ctx) }()

		db := client.Database(cfg.Mongo.Database)
		if err := repository.EnsureIndexes(ctx, db); err != nil {
			return err
		}

		auth := service.NewAuthService(repository.NewUserRepository(db), cfg.JWT.Secret, cfg.JWT.Expiration)
		created, err := auth.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if created {
			log.Info("admin account created", "email", cfg.Admin.Email)
		} else {
			log.Info("admin account already exists", "email", cfg.Admin.Email)
		}
		return nil
	},
}
