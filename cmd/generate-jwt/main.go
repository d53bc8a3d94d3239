package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"swap-backend/internal/config"
	"swap-backend/internal/handlers"
)

func main() {
	username := flag.String("user", "", "admin username (default from config)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if err := config.LoadConfig(""); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.AppConfig.Admin
	if *username == "" {
		*username = cfg.Username
	}
	if cfg.JWTSecret == "" {
		log.Fatalf("admin.jwtSecret (or ADMIN_JWT_SECRET) must be set")
	}

	token, err := handlers.IssueAdminToken([]byte(cfg.JWTSecret), *username, *ttl)
	if err != nil {
		log.Fatalf("Error generating token: %v", err)
	}

	fmt.Println("============================================================")
	fmt.Println("Admin JWT Token")
	fmt.Println("============================================================")
	fmt.Println()
	fmt.Println(token)
	fmt.Println()
	fmt.Printf("  User:    %s\n", *username)
	fmt.Printf("  Expires: %s\n", time.Now().Add(*ttl).Format(time.RFC3339))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s' -X POST http://localhost:3001/api/admin/root -d @root.json\n", token)
}
