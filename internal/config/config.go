package config

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Config holds the runtime application config
type Config struct {
	Env string `long:"env" env:"GO_ENV" default:"development"`

	LogLevel string `long:"log-level" env:"LOG_LEVEL" default:"info" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" choice:"fatal" choice:"panic" description:"Log level"`

	Config           func(s string) error `long:"config" env:"CONFIG" description:"Path to config file" json:"-"`
	Domain           string               `long:"domain" env:"AUTH0_DOMAIN" description:"Auth0 domain, e.g. username.auth0.com"`
	ClientID         string               `long:"client-id" env:"AUTH0_CLIENT_ID" description:"ID of the application to use"`
	Connection       string               `long:"connection" env:"AUTH0_CONNECTION" default:"Username-Password-Authentication" description:"Database or LDAP connection name"`
	Timeout          time.Duration        `long:"timeout" env:"AUTH0_TIMEOUT" default:"5s" description:"Timeout of requests to Auth0"`
	DisableTelemetry bool                 `long:"disable-telemetry" env:"AUTH0_DISABLE_TELEMETRY" description:"Do not send the Auth0-Client header"`

	Host     string `long:"host" env:"HOST" default:"localhost" description:"Host to listen on"`
	HttpPort int    `long:"http-port" env:"HTTP_PORT" default:"8080" description:"HTTP gateway port"`
	LdapPort int    `long:"ldap-port" env:"LDAP_PORT" default:"3893" description:"LDAP bridge port"`
	BaseDN   string `long:"base-dn" env:"BASE_DN" default:"dc=example,dc=com" description:"LDAP base DN"`

	Login          LoginCommand          `command:"login" description:"Login with username and password (uses the deprecated /oauth/ro endpoint)" json:"-"`
	Signup         SignupCommand         `command:"signup" description:"Create a user in a database connection" json:"-"`
	ChangePassword ChangePasswordCommand `command:"change-password" description:"Change a user's password or send a reset email" json:"-"`
	Serve          ServeCommand          `command:"serve" description:"Run the HTTP gateway and LDAP bridge" json:"-"`

	// Filled during parsing
	Command string `json:"command"`
}

// LoginCommand holds the options of the login command
type LoginCommand struct {
	Username  string `long:"username" required:"true" description:"Username"`
	Password  string `long:"password" required:"true" description:"Password" json:"-"`
	IDToken   string `long:"id-token" description:"ID token" json:"-"`
	Device    string `long:"device" description:"Device name"`
	GrantType string `long:"grant-type" default:"password" description:"Grant type"`
	Scope     string `long:"scope" default:"openid" description:"Scope"`
}

// SignupCommand holds the options of the signup command
type SignupCommand struct {
	Email        string            `long:"email" required:"true" description:"The user's email address"`
	Password     string            `long:"password" required:"true" description:"The user's desired password" json:"-"`
	Username     string            `long:"username" description:"The user's username, if required by the connection"`
	UserMetadata map[string]string `long:"user-metadata" description:"Additional key:value information, can be set multiple times"`
	GivenName    string            `long:"given-name" description:"The user's given name(s)"`
	FamilyName   string            `long:"family-name" description:"The user's family name(s)"`
	Name         string            `long:"name" description:"The user's full name"`
	Nickname     string            `long:"nickname" description:"The user's nickname"`
	Picture      string            `long:"picture" description:"A URI pointing to the user's picture"`
}

// ChangePasswordCommand holds the options of the change-password command
type ChangePasswordCommand struct {
	Email    string `long:"email" required:"true" description:"The user's email address"`
	Password string `long:"password" env:"AUTH0_NEW_PASSWORD" description:"New password; omit to send a reset email" json:"-"`
}

// ServeCommand has no options of its own
type ServeCommand struct{}

// ParseConfig parses provided configuration into a config object
func ParseConfig(args []string) (*Config, error) {
	if args == nil {
		args = os.Args[1:]
	}
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	_ = godotenv.Load(".env." + env + ".local")
	if env != "test" {
		_ = godotenv.Load(".env.local")
	}
	_ = godotenv.Load(".env." + env)
	_ = godotenv.Load() // The Original .env

	c := &Config{}

	err := c.parseFlags(args)
	if err != nil {
		return c, err
	}

	return c, nil
}

func (c *Config) parseFlags(args []string) error {
	p := flags.NewParser(c, flags.Default)

	i := flags.NewIniParser(p)
	c.Config = func(s string) error {
		return i.ParseFile(s)
	}

	_, err := p.ParseArgs(args)
	if err != nil {
		return handleFlagError(err)
	}
	if p.Active != nil {
		c.Command = p.Active.Name
	}

	return nil
}

func handleFlagError(err error) error {
	flagsErr, ok := err.(*flags.Error)
	if ok && flagsErr.Type == flags.ErrHelp {
		// Library has just printed cli help
		os.Exit(0)
	}

	return err
}

// Validate validates a config object
func (c *Config) Validate() error {
	// Check for show stopper errors
	if c.Domain == "" {
		return errors.New("\"domain\" option must be set")
	}
	if c.ClientID == "" {
		return errors.New("\"client-id\" option must be set")
	}
	if c.Connection == "" {
		return errors.New("\"connection\" option must be set")
	}
	if c.Timeout <= 0 {
		return errors.New("\"timeout\" option must be positive")
	}
	return nil
}

func (c Config) String() string {
	jsonConf, _ := json.Marshal(c)
	return string(jsonConf)
}
