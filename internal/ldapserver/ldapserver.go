package ldapserver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/blesswinsamuel/auth0-db/internal/authentication"
	"github.com/go-ldap/ldap"
	"github.com/jimlambrt/gldap"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidDN     = errors.New("invalid dn")
	ErrNotBound      = errors.New("connection is not bound")
	ErrNotPermitted  = errors.New("modify of another user is not permitted")
	ErrNoNewPassword = errors.New("userPassword not found")
)

// Authenticator is the subset of the Auth0 database client used over LDAP
type Authenticator interface {
	Login(ctx context.Context, req authentication.LoginRequest) (interface{}, error)
	ChangePassword(ctx context.Context, req authentication.ChangePasswordRequest) (interface{}, error)
}

type Config struct {
	BaseDN     string
	ClientID   string
	Connection string
}

// LdapServer lets LDAP clients bind against an Auth0 database connection.
// Users live at uid=<username>,ou=people,<base dn>.
type LdapServer struct {
	auth   Authenticator
	srv    *gldap.Server
	config Config
	baseDN *ldap.DN
	logger zerolog.Logger

	mu sync.Mutex
	// connection id -> bound uid
	boundConnections map[int]string
}

func NewLdapServer(auth Authenticator, config Config, logger zerolog.Logger) (*LdapServer, error) {
	baseDN, err := ldap.ParseDN(config.BaseDN)
	if err != nil {
		return nil, fmt.Errorf("unable to parse base dn: %w", err)
	}
	s := &LdapServer{auth: auth, config: config, baseDN: baseDN, logger: logger}
	s.boundConnections = make(map[int]string)
	s.srv, err = gldap.NewServer()
	if err != nil {
		return nil, fmt.Errorf("unable to create server: %w", err)
	}
	r, err := gldap.NewMux()
	if err != nil {
		return nil, fmt.Errorf("unable to create router: %w", err)
	}
	r.Bind(s.bindHandler)
	r.Search(s.searchHandler)
	r.Modify(s.modifyHandler)
	r.Unbind(s.unbindHandler)
	s.srv.Router(r)
	return s, nil
}

func (s *LdapServer) Start(host string, port int) {
	addr := host + ":" + strconv.Itoa(port)
	s.logger.Info().Msgf("ldap listening on %s", addr)
	if err := s.srv.Run(addr); err != nil {
		s.logger.Error().Err(err).Msg("ldap server stopped")
	}
}

func (s *LdapServer) Stop() {
	s.logger.Info().Msg("stopping ldap server")
	s.srv.Stop()
	s.logger.Info().Msg("stopped ldap server")
}

// peopleUID returns the uid of a dn of the form uid=<uid>,ou=people,<base dn>.
func (s *LdapServer) peopleUID(v string) (string, error) {
	dn, err := ldap.ParseDN(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidDN, err)
	}
	if !s.baseDN.AncestorOf(dn) {
		return "", fmt.Errorf("%w: %s is not under %s", ErrInvalidDN, v, s.config.BaseDN)
	}
	rdnsMap := rdnsToMap(dn.RDNs)
	if ou := rdnsMap["ou"]; len(ou) == 0 || !strings.EqualFold(ou[0], "people") {
		return "", fmt.Errorf("%w: %s is not in ou=people", ErrInvalidDN, v)
	}
	uid := rdnsMap["uid"]
	if len(uid) == 0 || uid[0] == "" {
		return "", fmt.Errorf("%w: %s has no uid", ErrInvalidDN, v)
	}
	return uid[0], nil
}

// bind logs the user in through Auth0 and remembers the connection as bound.
func (s *LdapServer) bind(ctx context.Context, connID int, dn string, password string) error {
	// a failed bind leaves the connection anonymous
	s.unbind(connID)
	uid, err := s.peopleUID(dn)
	if err != nil {
		return err
	}
	_, err = s.auth.Login(ctx, authentication.LoginRequest{
		ClientID:   s.config.ClientID,
		Username:   uid,
		Password:   password,
		Connection: s.config.Connection,
	})
	if err != nil {
		return fmt.Errorf("login %s: %w", uid, err)
	}
	s.mu.Lock()
	s.boundConnections[connID] = uid
	s.mu.Unlock()
	return nil
}

func (s *LdapServer) boundUID(connID int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.boundConnections[connID]
	return uid, ok
}

func (s *LdapServer) unbind(connID int) {
	s.mu.Lock()
	delete(s.boundConnections, connID)
	s.mu.Unlock()
}

// changePassword changes the password of the user bound on connID. The uid is
// used as the user's email.
func (s *LdapServer) changePassword(ctx context.Context, connID int, dn string, newPassword string) error {
	bound, ok := s.boundUID(connID)
	if !ok {
		return ErrNotBound
	}
	uid, err := s.peopleUID(dn)
	if err != nil {
		return err
	}
	if uid != bound {
		return ErrNotPermitted
	}
	// an empty password makes Auth0 send a reset email instead
	if newPassword == "" {
		return ErrNoNewPassword
	}
	_, err = s.auth.ChangePassword(ctx, authentication.ChangePasswordRequest{
		ClientID:   s.config.ClientID,
		Email:      uid,
		Password:   newPassword,
		Connection: s.config.Connection,
	})
	if err != nil {
		return fmt.Errorf("change password %s: %w", uid, err)
	}
	return nil
}

func (s *LdapServer) bindHandler(w *gldap.ResponseWriter, r *gldap.Request) {
	logger := s.logger.With().Str("method", "bindHandler").Int("id", r.ID).Logger()
	m, err := r.GetSimpleBindMessage()
	if err != nil {
		logger.Error().Err(err).Msgf("not a simple bind message")
		w.Write(r.NewBindResponse(gldap.WithResponseCode(gldap.ResultInvalidCredentials)))
		return
	}
	logger = logger.With().Str("username", m.UserName).Logger()
	logger.Info().Msgf("bind request")

	if err := s.bind(context.Background(), r.ConnectionID(), m.UserName, string(m.Password)); err != nil {
		logger.Error().Err(err).Msg("bind failed")
		w.Write(r.NewBindResponse(gldap.WithResponseCode(gldap.ResultInvalidCredentials)))
		return
	}
	logger.Info().Msg("user bind success")
	w.Write(r.NewBindResponse(gldap.WithResponseCode(gldap.ResultSuccess)))
}

func (s *LdapServer) unbindHandler(w *gldap.ResponseWriter, r *gldap.Request) {
	s.logger.Info().Int("connection", r.ConnectionID()).Msg("unbind")
	s.unbind(r.ConnectionID())
}

func (s *LdapServer) searchHandler(w *gldap.ResponseWriter, r *gldap.Request) {
	logger := s.logger.With().Str("method", "searchHandler").Int("id", r.ID).Logger()
	if _, ok := s.boundUID(r.ConnectionID()); !ok {
		logger.Info().Msgf("connection %d is not authorized", r.ConnectionID())
		w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultAuthorizationDenied)))
		return
	}

	m, err := r.GetSearchMessage()
	if err != nil {
		logger.Error().Err(err).Msg("not a search message")
		w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultAuthorizationDenied)))
		return
	}
	logger = logger.With().Str("base_dn", m.BaseDN).Str("filter", m.Filter).Logger()
	logger.Info().Msg("search request")

	if m.BaseDN == "" {
		// RootDSE search
		w.Write(r.NewSearchResponseEntry(s.config.BaseDN))
		w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultSuccess)))
		return
	}
	// Auth0 database connections cannot be listed through this API.
	w.Write(r.NewSearchDoneResponse(gldap.WithResponseCode(gldap.ResultSuccess)))
}

func (s *LdapServer) modifyHandler(w *gldap.ResponseWriter, r *gldap.Request) {
	logger := s.logger.With().Str("method", "modifyHandler").Int("id", r.ID).Logger()

	m, err := r.GetModifyMessage()
	if err != nil {
		logger.Error().Err(err).Msg("not a modify message")
		w.Write(r.NewModifyResponse(gldap.WithResponseCode(gldap.ResultInvalidCredentials)))
		return
	}
	logger = logger.With().Str("dn", m.DN).Logger()
	logger.Info().Msg("modify request")

	newPassword, err := userPassword(m.Changes)
	if err == nil {
		err = s.changePassword(context.Background(), r.ConnectionID(), m.DN, newPassword)
	}
	if err != nil {
		logger.Error().Err(err).Msg("modify failed")
		code := gldap.ResultInvalidCredentials
		if errors.Is(err, ErrNotBound) || errors.Is(err, ErrNotPermitted) {
			code = gldap.ResultAuthorizationDenied
		}
		w.Write(r.NewModifyResponse(gldap.WithResponseCode(code)))
		return
	}
	logger.Info().Msg("modify success")
	w.Write(r.NewModifyResponse(gldap.WithResponseCode(gldap.ResultSuccess)))
}

// userPassword extracts the new password from an add or replace of
// userPassword, stripping the control characters some clients prepend.
func userPassword(changes []gldap.Change) (string, error) {
	for _, change := range changes {
		if !strings.EqualFold(change.Modification.Type, "userPassword") || len(change.Modification.Vals) == 0 {
			continue
		}
		if change.Operation != gldap.AddAttribute && change.Operation != gldap.ReplaceAttribute {
			continue
		}
		newPassword := strings.TrimSpace(change.Modification.Vals[0])
		newPassword = strings.TrimLeftFunc(newPassword, func(r rune) bool {
			return r < 0x20
		})
		newPassword = strings.TrimSpace(newPassword)
		if newPassword == "" {
			return "", ErrNoNewPassword
		}
		return newPassword, nil
	}
	return "", ErrNoNewPassword
}

func rdnsToMap(rdns []*ldap.RelativeDN) map[string][]string {
	res := map[string][]string{}
	for _, a := range rdns {
		for _, v := range a.Attributes {
			t := strings.ToLower(v.Type)
			res[t] = append(res[t], v.Value)
		}
	}
	return res
}
