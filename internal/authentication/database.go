package authentication

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// DefaultConnection is the name of the database connection Auth0 creates for new tenants.
const DefaultConnection = "Username-Password-Authentication"

// Database authenticates users against database and Active Directory/LDAP
// connections of an Auth0 tenant.
type Database struct {
	domain    string
	transport Transport
	logger    zerolog.Logger
}

// NewDatabase creates a new Database client for domain (e.g. username.auth0.com).
// Requests go through Base unless WithTransport is given.
func NewDatabase(domain string, options ...Option) *Database {
	cfg := getConfig(options...)
	transport := cfg.transport
	if transport == nil {
		transport = newBase(cfg)
	}
	return &Database{domain: domain, transport: transport, logger: cfg.logger}
}

// Domain returns the configured domain.
func (d *Database) Domain() string {
	return d.domain
}

func (d *Database) url(path string) string {
	return fmt.Sprintf("https://%s%s", d.domain, path)
}

// LoginRequest holds the parameters of the resource owner login endpoint.
// Empty optional fields are sent as null; GrantType and Scope have defaults.
type LoginRequest struct {
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Connection string `json:"connection"`
	IDToken    string `json:"id_token,omitempty"`
	GrantType  string `json:"grant_type,omitempty"`
	Device     string `json:"device,omitempty"`
	Scope      string `json:"scope,omitempty"`
}

func (r LoginRequest) payload() map[string]interface{} {
	grantType := r.GrantType
	if grantType == "" {
		grantType = "password"
	}
	scope := r.Scope
	if scope == "" {
		scope = "openid"
	}
	return map[string]interface{}{
		"client_id":  r.ClientID,
		"username":   r.Username,
		"password":   r.Password,
		"id_token":   nullable(r.IDToken),
		"connection": r.Connection,
		"device":     nullable(r.Device),
		"grant_type": grantType,
		"scope":      scope,
	}
}

// Login authenticates a user with username and password on the given connection
// and returns the token response. It works for database, passwordless,
// Active Directory/LDAP, Windows Azure AD and ADFS connections.
//
// The /oauth/ro endpoint is deprecated by Auth0; every call logs a warning.
func (d *Database) Login(ctx context.Context, req LoginRequest) (interface{}, error) {
	d.logger.Warn().Str("endpoint", "/oauth/ro").Msg("/oauth/ro will be deprecated in future releases")
	return d.transport.Post(ctx, d.url("/oauth/ro"), req.payload())
}

// SignupRequest holds the parameters of the database signup endpoint.
type SignupRequest struct {
	ClientID     string                 `json:"client_id"`
	Email        string                 `json:"email"`
	Password     string                 `json:"password"`
	Connection   string                 `json:"connection"`
	Username     string                 `json:"username,omitempty"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	GivenName    string                 `json:"given_name,omitempty"`
	FamilyName   string                 `json:"family_name,omitempty"`
	Name         string                 `json:"name,omitempty"`
	Nickname     string                 `json:"nickname,omitempty"`
	Picture      string                 `json:"picture,omitempty"`
}

func (r SignupRequest) payload() map[string]interface{} {
	body := map[string]interface{}{
		"client_id":     r.ClientID,
		"email":         r.Email,
		"password":      r.Password,
		"connection":    r.Connection,
		"username":      nullable(r.Username),
		"user_metadata": nil,
	}
	if r.UserMetadata != nil {
		body["user_metadata"] = r.UserMetadata
	}
	for key, value := range map[string]string{
		"given_name":  r.GivenName,
		"family_name": r.FamilyName,
		"name":        r.Name,
		"nickname":    r.Nickname,
		"picture":     r.Picture,
	} {
		if value != "" {
			body[key] = value
		}
	}
	return body
}

// Signup creates a user in a database connection and returns the created user.
// UserMetadata is subject to Auth0's metadata restrictions.
func (d *Database) Signup(ctx context.Context, req SignupRequest) (interface{}, error) {
	return d.transport.Post(ctx, d.url("/dbconnections/signup"), req.payload())
}

// ChangePasswordRequest holds the parameters of the change password endpoint.
// Leaving Password empty makes Auth0 send a password reset email.
type ChangePasswordRequest struct {
	ClientID   string `json:"client_id"`
	Email      string `json:"email"`
	Connection string `json:"connection"`
	Password   string `json:"password,omitempty"`
}

func (r ChangePasswordRequest) payload() map[string]interface{} {
	return map[string]interface{}{
		"client_id":  r.ClientID,
		"email":      r.Email,
		"password":   nullable(r.Password),
		"connection": r.Connection,
	}
}

// ChangePassword asks to change the password of a given user.
func (d *Database) ChangePassword(ctx context.Context, req ChangePasswordRequest) (interface{}, error) {
	return d.transport.Post(ctx, d.url("/dbconnections/change_password"), req.payload())
}

// nullable maps an empty string to a JSON null.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
