package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blesswinsamuel/auth0-db/internal/authentication"
	"github.com/blesswinsamuel/auth0-db/internal/config"
	"github.com/blesswinsamuel/auth0-db/internal/ldapserver"
	"github.com/blesswinsamuel/auth0-db/internal/logger"
	"github.com/blesswinsamuel/auth0-db/internal/server"

	"github.com/rs/zerolog"
)

func main() {
	// Parse options
	config, err := config.ParseConfig(nil)
	if err != nil {
		log := logger.NewLogger(zerolog.DebugLevel.String())
		log.Fatal().Err(err).Msg("failed to parse config")
	}

	// Setup logger
	log := logger.NewLogger(config.LogLevel)

	// Perform config validation
	if err := config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db := authentication.NewDatabase(config.Domain,
		authentication.WithTimeout(config.Timeout),
		authentication.WithTelemetry(!config.DisableTelemetry),
		authentication.WithLogger(log),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if config.Command == "serve" {
		serve(ctx, config, log, db)
		return
	}

	resp, err := run(ctx, config, db)
	if err != nil {
		authErr := &authentication.Auth0Error{}
		if errors.As(err, &authErr) {
			log.Fatal().Int("status", authErr.Status()).Str("code", authErr.ErrorCode).Msg(authErr.Message)
		}
		log.Fatal().Err(err).Msgf("%s failed", config.Command)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		log.Fatal().Err(err).Msg("failed to write response")
	}
}

func serve(ctx context.Context, config *config.Config, log zerolog.Logger, db *authentication.Database) {
	ldapserver, err := ldapserver.NewLdapServer(db, ldapserver.Config{
		BaseDN:     config.BaseDN,
		ClientID:   config.ClientID,
		Connection: config.Connection,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init LDAP bridge")
	}

	go ldapserver.Start(config.Host, config.LdapPort)
	defer ldapserver.Stop()

	// Build handler
	srv := server.NewServer(config, log, db)

	// Start
	go srv.Start()

	log.Info().Str("domain", config.Domain).Msg("server started")
	<-ctx.Done()
	log.Info().Msg("server stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to stop server")
	}
}
