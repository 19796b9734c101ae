// Command authstub runs a local stand-in for the external
// access-management service. It speaks the same wire contract the web
// front end and CLI authenticate against, so the full stack can run on
// a laptop without the real identity provider.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/errandhub-dev/errandhub/internal/authstub"
	"github.com/errandhub-dev/errandhub/internal/config"
	"github.com/errandhub-dev/errandhub/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Component("authstub")

	addr := os.Getenv("AUTHSTUB_ADDR")
	if addr == "" {
		addr = ":9090"
	}
	secret := os.Getenv("AUTHSTUB_JWT_SECRET")
	if secret == "" {
		secret = "local-dev-secret"
		log.Warn().Msg("AUTHSTUB_JWT_SECRET not set, using insecure default")
	}
	dbPath := os.Getenv("AUTHSTUB_DATABASE_URL")
	if dbPath == "" {
		dbPath = "authstub.sqlite"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}

	service, err := authstub.New(db, secret, 24*time.Hour, seedUsers(log), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth stub")
	}

	log.Info().Str("addr", addr).Msg("Starting auth stub")
	if err := http.ListenAndServe(addr, service.Router()); err != nil {
		log.Fatal().Err(err).Msg("Auth stub failed")
	}
}

// seedUsers returns the fixed local accounts. Override the passwords
// with AUTHSTUB_ADMIN_PASSWORD and AUTHSTUB_USER_PASSWORD when the stub
// is exposed beyond localhost.
func seedUsers(log zerolog.Logger) []authstub.User {
	adminPassword := os.Getenv("AUTHSTUB_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}
	userPassword := os.Getenv("AUTHSTUB_USER_PASSWORD")
	if userPassword == "" {
		userPassword = "user123"
	}

	adminHash, err := authstub.HashPassword(adminPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash admin password")
	}
	userHash, err := authstub.HashPassword(userPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash user password")
	}

	return []authstub.User{
		{ID: "usr_admin", Email: "admin@errandhub.local", Name: "Site Admin", Role: "admin", PasswordHash: adminHash},
		{ID: "usr_demo", Email: "demo@errandhub.local", Name: "Demo Customer", Role: "customer", PasswordHash: userHash},
	}
}
