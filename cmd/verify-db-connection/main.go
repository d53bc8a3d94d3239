package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/lib/pq"

	"swap-backend/internal/config"
)

// expectedColumns lists the columns the swap service reads and writes.
var expectedColumns = map[string][]string{
	"claim_records":    {"foreign_address", "claimed_balance", "claim_count", "last_claim_id"},
	"account_balances": {"account_id", "balance"},
	"claim_events":     {"id", "signer", "destination", "amount", "total_claimed", "root_block_number"},
	"root_infos":       {"id", "storage_root", "state_root", "meta_block_number", "ipfs_path"},
}

func main() {
	fmt.Println("🔍 Verifying database connection and swap schema...")
	fmt.Println(strings.Repeat("=", 60))

	if err := config.LoadConfig(""); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sqlDB, err := sql.Open("postgres", config.AppConfig.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	var dbName string
	if err := sqlDB.QueryRow("SELECT current_database()").Scan(&dbName); err != nil {
		log.Fatalf("Failed to get database name: %v", err)
	}
	fmt.Printf("📋 Connected to database: %s\n", dbName)

	missing := 0
	for table, columns := range expectedColumns {
		for _, column := range columns {
			var dataType string
			var precision sql.NullInt64
			err := sqlDB.QueryRow(`
				SELECT data_type, numeric_precision
				FROM information_schema.columns
				WHERE table_schema = 'public' AND table_name = $1 AND column_name = $2
			`, table, column).Scan(&dataType, &precision)
			if err == sql.ErrNoRows {
				fmt.Printf("❌ %s.%s is missing\n", table, column)
				missing++
				continue
			}
			if err != nil {
				log.Fatalf("Failed to inspect %s.%s: %v", table, column, err)
			}
			if dataType == "numeric" && precision.Valid && precision.Int64 < 39 {
				fmt.Printf("⚠️ %s.%s is NUMERIC(%d), expected NUMERIC(39,0)\n", table, column, precision.Int64)
				continue
			}
			fmt.Printf("✅ %s.%s (%s)\n", table, column, dataType)
		}
	}

	var claims, roots int
	sqlDB.QueryRow("SELECT COUNT(*) FROM claim_records").Scan(&claims)
	sqlDB.QueryRow("SELECT COUNT(*) FROM root_infos").Scan(&roots)
	fmt.Printf("\n📊 claim_records: %d rows, root_infos: %d rows\n", claims, roots)

	if missing > 0 {
		fmt.Printf("\n❌ %d columns missing, start swapd once to run migrations\n", missing)
		os.Exit(1)
	}
	fmt.Println("\n✅ Schema looks good")
}
