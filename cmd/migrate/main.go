package main

import (
	"context"
	"time"

	mongoMigration "smartparking/internal/migrations/mongo"
	"smartparking/pkg/config"
	"smartparking/pkg/logger"
)

const JobName = "mongo-migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg, err := config.Load(JobName)
	if err != nil {
		logger.New(logger.Config{Service: JobName}).Fatal("Invalid configuration", "error", err)
	}
	cfg.SetMongo()

	cfg.Log.Info("Starting Mongo migration job", "database", cfg.MongoDatabaseName)
	err = mongoMigration.RunMigration(ctx, cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.Log)
	cfg.GracefulShutdown()
	if err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed successfully")
}
