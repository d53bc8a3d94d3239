package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"swap-backend/internal/config"
	"swap-backend/internal/metrics"
	"swap-backend/internal/models"
)

var DB *gorm.DB

// Models returns every table the swap service owns, in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.ClaimRecord{},
		&models.AccountBalance{},
		&models.ClaimEvent{},
		&models.RootInfoRecord{},
	}
}

// Open connects to postgres, migrates the schema and sets the package-level DB.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	conn, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		PrepareStmt:                              true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		metrics.DBConnectionStatus.Set(0)
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	metrics.DBConnectionStatus.Set(1)
	log.Println("✅ Database connected successfully")

	if err := Migrate(conn); err != nil {
		return nil, err
	}

	DB = conn
	return conn, nil
}

// Migrate runs AutoMigrate for the swap tables, then the versioned column fixes
// AutoMigrate cannot express.
func Migrate(conn *gorm.DB) error {
	log.Println("🚀 Starting database schema migration with GORM AutoMigrate...")
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := RunDataMigrations(sqlDB); err != nil {
		return fmt.Errorf("data migrations failed: %w", err)
	}

	log.Println("✅ Database schema migrated successfully")
	return nil
}

// Ping reports whether the database answers.
func Ping(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// ReportPoolMetrics publishes connection pool gauges until ctx is cancelled.
func ReportPoolMetrics(ctx context.Context, conn *gorm.DB, interval time.Duration) {
	sqlDB, err := conn.DB()
	if err != nil {
		log.Printf("⚠️ Pool metrics disabled: %v", err)
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stats := sqlDB.Stats()
		metrics.DBConnectionActive.Set(float64(stats.InUse))
		metrics.DBConnectionIdle.Set(float64(stats.Idle))
		if err := Ping(conn); err != nil {
			metrics.DBConnectionStatus.Set(0)
		} else {
			metrics.DBConnectionStatus.Set(1)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
