package main

import (
	"context"
	"fmt"

	"github.com/blesswinsamuel/auth0-db/internal/authentication"
	"github.com/blesswinsamuel/auth0-db/internal/config"
	"github.com/blesswinsamuel/auth0-db/internal/server"
)

// run executes the one-shot command selected on the command line.
func run(ctx context.Context, cfg *config.Config, auth server.Authenticator) (interface{}, error) {
	switch cfg.Command {
	case "login":
		return auth.Login(ctx, authentication.LoginRequest{
			ClientID:   cfg.ClientID,
			Username:   cfg.Login.Username,
			Password:   cfg.Login.Password,
			Connection: cfg.Connection,
			IDToken:    cfg.Login.IDToken,
			GrantType:  cfg.Login.GrantType,
			Device:     cfg.Login.Device,
			Scope:      cfg.Login.Scope,
		})
	case "signup":
		var metadata map[string]interface{}
		if len(cfg.Signup.UserMetadata) > 0 {
			metadata = make(map[string]interface{}, len(cfg.Signup.UserMetadata))
			for k, v := range cfg.Signup.UserMetadata {
				metadata[k] = v
			}
		}
		return auth.Signup(ctx, authentication.SignupRequest{
			ClientID:     cfg.ClientID,
			Email:        cfg.Signup.Email,
			Password:     cfg.Signup.Password,
			Connection:   cfg.Connection,
			Username:     cfg.Signup.Username,
			UserMetadata: metadata,
			GivenName:    cfg.Signup.GivenName,
			FamilyName:   cfg.Signup.FamilyName,
			Name:         cfg.Signup.Name,
			Nickname:     cfg.Signup.Nickname,
			Picture:      cfg.Signup.Picture,
		})
	case "change-password":
		return auth.ChangePassword(ctx, authentication.ChangePasswordRequest{
			ClientID:   cfg.ClientID,
			Email:      cfg.ChangePassword.Email,
			Connection: cfg.Connection,
			Password:   cfg.ChangePassword.Password,
		})
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
}
