package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/config"
	"github.com/mamadbah2/stockroom/internal/repository/mongodb"
	"github.com/mamadbah2/stockroom/pkg/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var envFile string

var rootCmd = &cobra.Command{
	Use:           "stockctl",
	Short:         "Stockroom operator CLI",
	Long:          "Manage stockroom users and run inventory reports against the configured MongoDB.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "optional .env file to load before the environment")

	// Users
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userRoleCmd)
	rootCmd.AddCommand(userCmd)

	// Reports
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
}

// app holds what every command needs after boot.
type app struct {
	cfg    *config.Config
	repo   *mongodb.MongoDBRepository
	logger *zap.Logger
}

// boot loads config, builds the logger and opens MongoDB.
func boot(ctx context.Context) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, repo: repo, logger: log.Named("stockctl")}, nil
}

func (a *app) close() {
	_ = a.repo.Close(context.Background())
	_ = a.logger.Sync()
}
