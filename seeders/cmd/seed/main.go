package main

import (
	"context"
	"flag"
	"log"
	"os"

	"it-inventory/pkg/config"
	"it-inventory/pkg/database/postgresql"
	applogger "it-inventory/pkg/logger"
	"it-inventory/seeders"

	"go.uber.org/zap"
)

func main() {
	username := flag.String("username", os.Getenv("ADMIN_USERNAME"), "Логин администратора")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "Пароль администратора")
	migrate := flag.Bool("migrate", true, "Применить миграции перед наполнением")
	flag.Parse()

	cfg := config.New()
	logger, err := applogger.NewLogger(cfg.Log.Level, "")
	if err != nil {
		log.Fatalf("не удалось создать логгер: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	dbPool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("не удалось подключиться к БД", zap.Error(err))
	}
	defer dbPool.Close()

	if *migrate {
		if err := postgresql.Migrate(ctx, dbPool); err != nil {
			logger.Fatal("не удалось применить миграции", zap.Error(err))
		}
	}

	if _, err := seeders.SeedAdmin(ctx, dbPool, *username, *password, logger); err != nil {
		logger.Fatal("Сидер администратора завершился с ошибкой", zap.Error(err))
	}
}
