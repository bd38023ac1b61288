package main

import (
	"context"
	"fmt"

	"bscar/backend/internal/config"
	"bscar/backend/internal/database"
	"bscar/backend/internal/logger"
	"bscar/backend/internal/storage"
	"bscar/backend/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

// app is what every command needs: settings, a logger and an open database.
type app struct {
	cfg *config.Config
	log *logrus.Logger
	db  *gorm.DB
}

func setup(configDir string) (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.DatabaseURL, database.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		Log:             log,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServer(ctx, cmd.String("config-dir"))
		},
	}
}

func initDBCommand() *cli.Command {
	return &cli.Command{
		Name:  "init-db",
		Usage: "Create or migrate every table",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd.String("config-dir"))
			if err != nil {
				return err
			}
			defer a.close()
			fmt.Println("Database initialized.")
			return nil
		},
	}
}

func initCategoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "init-categories",
		Usage: "Create the New and Used categories if missing",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd.String("config-dir"))
			if err != nil {
				return err
			}
			defer a.close()

			added, err := database.SeedCategories(a.db.WithContext(ctx))
			if err != nil {
				return err
			}
			if len(added) == 0 {
				fmt.Println("Categories already present.")
				return nil
			}
			for _, name := range added {
				fmt.Printf("Added category %q\n", name)
			}
			return nil
		},
	}
}

func upgradeSchemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "upgrade-schema",
		Usage: "Add columns missing from databases created by older releases",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config-dir"))
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			log := logger.New(cfg.LogLevel, cfg.LogFormat)

			// Open without migrating so an old schema is patched in place.
			db, err := database.Open(database.Dialector(cfg.DatabaseURL), database.Options{Log: log})
			if err != nil {
				return err
			}
			a := &app{cfg: cfg, log: log, db: db}
			defer a.close()

			changed, err := database.UpgradeSchema(db.WithContext(ctx))
			if err != nil {
				return err
			}
			if changed {
				fmt.Println("Added users.avatar_filename.")
			} else {
				fmt.Println("Schema is up to date.")
			}
			return nil
		},
	}
}

func createAdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "Create an admin account, or promote an existing one",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, Usage: "used only when the account is created"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd.String("config-dir"))
			if err != nil {
				return err
			}
			defer a.close()

			s := store.New(a.db, storage.NewLocal(a.cfg.UploadDir), nil, a.log)
			user, created, err := s.BootstrapAdmin(ctx, cmd.String("email"), cmd.String("password"))
			if err != nil {
				return err
			}
			if created {
				fmt.Printf("Created admin %s (id %d)\n", user.Email, user.ID)
			} else {
				fmt.Printf("Promoted %s (id %d) to admin\n", user.Email, user.ID)
			}
			return nil
		},
	}
}
