package ldapserver

import (
	"context"
	"errors"
	"testing"

	"github.com/jimlambrt/gldap"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blesswinsamuel/auth0-db/internal/authentication"
)

type fakeAuthenticator struct {
	logins          []authentication.LoginRequest
	changePasswords []authentication.ChangePasswordRequest
	err             error
}

func (f *fakeAuthenticator) Login(ctx context.Context, req authentication.LoginRequest) (interface{}, error) {
	f.logins = append(f.logins, req)
	return map[string]interface{}{"id_token": "it"}, f.err
}

func (f *fakeAuthenticator) ChangePassword(ctx context.Context, req authentication.ChangePasswordRequest) (interface{}, error) {
	f.changePasswords = append(f.changePasswords, req)
	return "ok", f.err
}

func newTestLdapServer(t *testing.T) (*LdapServer, *fakeAuthenticator) {
	t.Helper()
	auth := &fakeAuthenticator{}
	s, err := NewLdapServer(auth, Config{
		BaseDN:     "dc=example,dc=com",
		ClientID:   "cid",
		Connection: "ldap-conn",
	}, zerolog.Nop())
	require.NoError(t, err)
	return s, auth
}

func TestNewLdapServerInvalidBaseDN(t *testing.T) {
	_, err := NewLdapServer(&fakeAuthenticator{}, Config{BaseDN: "not a dn"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestPeopleUID(t *testing.T) {
	s, _ := newTestLdapServer(t)

	uid, err := s.peopleUID("uid=bob,ou=people,dc=example,dc=com")
	require.NoError(t, err)
	assert.Equal(t, "bob", uid)

	uid, err = s.peopleUID("UID=a@b.com,OU=People,DC=example,DC=com")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", uid)

	for _, dn := range []string{
		"uid=bob,ou=people,dc=other,dc=com",
		"cn=family,ou=groups,dc=example,dc=com",
		"uid=bob,dc=example,dc=com",
		"cn=bob,ou=people,dc=example,dc=com",
		"garbage",
	} {
		_, err := s.peopleUID(dn)
		assert.True(t, errors.Is(err, ErrInvalidDN), dn)
	}
}

func TestBind(t *testing.T) {
	s, auth := newTestLdapServer(t)

	err := s.bind(context.Background(), 7, "uid=bob,ou=people,dc=example,dc=com", "pw1")
	require.NoError(t, err)

	require.Len(t, auth.logins, 1)
	assert.Equal(t, authentication.LoginRequest{
		ClientID:   "cid",
		Username:   "bob",
		Password:   "pw1",
		Connection: "ldap-conn",
	}, auth.logins[0])

	uid, ok := s.boundUID(7)
	assert.True(t, ok)
	assert.Equal(t, "bob", uid)

	s.unbind(7)
	_, ok = s.boundUID(7)
	assert.False(t, ok)
}

func TestBindFailure(t *testing.T) {
	s, auth := newTestLdapServer(t)
	auth.err = authentication.NewAuth0Error(401, []byte(`{"error":"invalid_user_password"}`))

	err := s.bind(context.Background(), 1, "uid=bob,ou=people,dc=example,dc=com", "wrong")
	var authErr *authentication.Auth0Error
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "invalid_user_password", authErr.ErrorCode)

	_, ok := s.boundUID(1)
	assert.False(t, ok)
}

func TestFailedRebindLeavesConnectionAnonymous(t *testing.T) {
	s, auth := newTestLdapServer(t)
	require.NoError(t, s.bind(context.Background(), 1, "uid=alice,ou=people,dc=example,dc=com", "pw"))

	auth.err = authentication.NewAuth0Error(401, []byte(`{"error":"invalid_user_password"}`))
	err := s.bind(context.Background(), 1, "uid=bob,ou=people,dc=example,dc=com", "wrong")
	require.Error(t, err)

	_, ok := s.boundUID(1)
	assert.False(t, ok)

	err = s.changePassword(context.Background(), 1, "uid=alice,ou=people,dc=example,dc=com", "new")
	assert.True(t, errors.Is(err, ErrNotBound))
	assert.Empty(t, auth.changePasswords)
}

func TestRebindWithInvalidDNLeavesConnectionAnonymous(t *testing.T) {
	s, _ := newTestLdapServer(t)
	require.NoError(t, s.bind(context.Background(), 1, "uid=alice,ou=people,dc=example,dc=com", "pw"))

	err := s.bind(context.Background(), 1, "cn=admin,dc=example,dc=com", "pw")
	assert.True(t, errors.Is(err, ErrInvalidDN))
	_, ok := s.boundUID(1)
	assert.False(t, ok)
}

func TestBindInvalidDNSkipsLogin(t *testing.T) {
	s, auth := newTestLdapServer(t)

	err := s.bind(context.Background(), 1, "cn=admin,dc=example,dc=com", "pw")
	assert.True(t, errors.Is(err, ErrInvalidDN))
	assert.Empty(t, auth.logins)
}

func TestChangePassword(t *testing.T) {
	s, auth := newTestLdapServer(t)
	dn := "uid=a@b.com,ou=people,dc=example,dc=com"
	require.NoError(t, s.bind(context.Background(), 3, dn, "old"))

	require.NoError(t, s.changePassword(context.Background(), 3, dn, "new"))
	require.Len(t, auth.changePasswords, 1)
	assert.Equal(t, authentication.ChangePasswordRequest{
		ClientID:   "cid",
		Email:      "a@b.com",
		Password:   "new",
		Connection: "ldap-conn",
	}, auth.changePasswords[0])
}

func TestChangePasswordRequiresBind(t *testing.T) {
	s, auth := newTestLdapServer(t)

	err := s.changePassword(context.Background(), 3, "uid=a@b.com,ou=people,dc=example,dc=com", "new")
	assert.True(t, errors.Is(err, ErrNotBound))
	assert.Empty(t, auth.changePasswords)
}

func TestChangePasswordOfAnotherUser(t *testing.T) {
	s, auth := newTestLdapServer(t)
	require.NoError(t, s.bind(context.Background(), 3, "uid=a@b.com,ou=people,dc=example,dc=com", "old"))

	err := s.changePassword(context.Background(), 3, "uid=c@d.com,ou=people,dc=example,dc=com", "new")
	assert.True(t, errors.Is(err, ErrNotPermitted))
	assert.Empty(t, auth.changePasswords)
}

func TestChangePasswordEmptyPassword(t *testing.T) {
	s, auth := newTestLdapServer(t)
	dn := "uid=a@b.com,ou=people,dc=example,dc=com"
	require.NoError(t, s.bind(context.Background(), 3, dn, "old"))

	err := s.changePassword(context.Background(), 3, dn, "")
	assert.True(t, errors.Is(err, ErrNoNewPassword))
	assert.Empty(t, auth.changePasswords)
}

func TestUserPassword(t *testing.T) {
	pw, err := userPassword([]gldap.Change{
		{Modification: gldap.PartialAttribute{Type: "mail", Vals: []string{"x@y.com"}}},
		{Modification: gldap.PartialAttribute{Type: "userPassword", Vals: []string{"\x04\x0enew-secret "}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-secret", pw)

	_, err = userPassword([]gldap.Change{
		{Modification: gldap.PartialAttribute{Type: "mail", Vals: []string{"x@y.com"}}},
	})
	assert.True(t, errors.Is(err, ErrNoNewPassword))

	pw, err = userPassword([]gldap.Change{
		{Operation: gldap.ReplaceAttribute, Modification: gldap.PartialAttribute{Type: "userPassword", Vals: []string{"replaced"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "replaced", pw)
}

func TestUserPasswordBlankValue(t *testing.T) {
	for _, v := range []string{"", "   ", "\x04\x0e", "\x04 \t"} {
		_, err := userPassword([]gldap.Change{
			{Operation: gldap.ReplaceAttribute, Modification: gldap.PartialAttribute{Type: "userPassword", Vals: []string{v}}},
		})
		assert.True(t, errors.Is(err, ErrNoNewPassword), "%q", v)
	}
}

func TestUserPasswordDeleteIsIgnored(t *testing.T) {
	_, err := userPassword([]gldap.Change{
		{Operation: gldap.DeleteAttribute, Modification: gldap.PartialAttribute{Type: "userPassword", Vals: []string{"old-secret"}}},
	})
	assert.True(t, errors.Is(err, ErrNoNewPassword))
}
