package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"leave-system/pkg/config"
)

// SeedAdmin создаёт первого администратора. Без него в систему некому войти.
func SeedAdmin(db *pgxpool.Pool, cfg *config.Config) {
	ctx := context.Background()
	log.Println("▶️  Создание администратора...")

	if err := seedAdminUser(ctx, db, cfg.Seed, cfg.Policy); err != nil {
		log.Fatalf("❌ Ошибка создания администратора: %v", err)
	}
	log.Println("✅ Администратор готов")
}

// SeedDemoStructure наполняет БД демонстрационной оргструктурой: подразделение, команда, сотрудники.
func SeedDemoStructure(db *pgxpool.Pool, cfg *config.Config) {
	ctx := context.Background()
	log.Println("▶️  Наполнение демонстрационной оргструктуры...")

	if err := seedDemoStructure(ctx, db, cfg.Policy); err != nil {
		log.Fatalf("❌ Ошибка наполнения оргструктуры: %v", err)
	}
	log.Println("✅ Демонстрационная оргструктура готова")
}
