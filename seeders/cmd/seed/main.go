package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"leave-system/pkg/config"
	"leave-system/pkg/database/postgresql"
	"leave-system/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runAdmin := flag.Bool("admin", false, "Создать первого администратора (SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD)")
	runDemo := flag.Bool("demo", false, "Создать демонстрационную оргструктуру")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -admin -demo)")
	flag.Parse()

	if !*runAdmin && !*runDemo && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -admin")
		log.Println("  go run ./seeders/cmd/seed -all")
		return
	}

	cfg := config.New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbPool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN, zap.NewNop())
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к БД: %v", err)
	}
	defer dbPool.Close()

	if *runAll || *runAdmin {
		seeders.SeedAdmin(dbPool, cfg)
	}
	if *runAll || *runDemo {
		seeders.SeedDemoStructure(dbPool, cfg)
	}

	log.Println("✅ Все указанные операции сидирования успешно завершены.")
}
