package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/edubot-backend/internal/data/repos/testutil"
	"github.com/yungbote/edubot-backend/internal/domain"
	"github.com/yungbote/edubot-backend/internal/platform/apierr"
	"github.com/yungbote/edubot-backend/internal/platform/ctxutil"
)

func newAuthService(t *testing.T) (AuthService, *fixture) {
	t.Helper()
	f := newFixture(t)
	return NewAuthService(f.db, testutil.Logger(t), f.users, "test-secret", time.Hour), f
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: " Ana@School.edu ", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, "ana@school.edu", u.Email)
	require.Equal(t, "ana", u.Username)
	require.Equal(t, domain.RoleStudent, u.Role)
	require.NotEqual(t, "secret1", u.Password)

	_, err = svc.Register(ctx, RegisterInput{Email: "ana@school.edu", Password: "secret1"})
	require.Equal(t, 409, apierr.As(err).Status)

	_, err = svc.Login(ctx, "ana@school.edu", "wrong-pass")
	require.Equal(t, 401, apierr.As(err).Status)

	res, err := svc.Login(ctx, "ANA@school.edu", "secret1")
	require.NoError(t, err)
	require.Equal(t, "bearer", res.TokenType)
	require.Equal(t, int64(3600), res.ExpiresIn)

	claims, err := svc.ParseToken(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)
	require.Equal(t, domain.RoleStudent, claims.Role)

	reqCtx, err := svc.SetContextFromToken(ctx, res.AccessToken)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(reqCtx)
	require.NotNil(t, rd)
	require.Equal(t, u.ID, rd.UserID)
	require.Equal(t, "ana@school.edu", rd.Email)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthService(t)
	cases := map[string]RegisterInput{
		"bad email":      {Email: "nope", Password: "secret1"},
		"short password": {Email: "a@x.com", Password: "123"},
		"short username": {Email: "a@x.com", Password: "secret1", Username: "ab"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), in)
			require.Equal(t, 400, apierr.As(err).Status)
		})
	}
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	svc, f := newAuthService(t)
	u := f.seedUser(t, "t@school.edu", domain.RoleTeacher)
	other := NewAuthService(f.db, testutil.Logger(t), f.users, "other-secret", time.Hour)

	tok, err := other.TokenForClaims(Claims{Subject: u.ID, Email: u.Email, Role: u.Role})
	require.NoError(t, err)
	_, err = svc.ParseToken(tok)
	require.Error(t, err)

	tok, err = svc.TokenForSubject(context.Background(), "t@school.edu")
	require.NoError(t, err)
	claims, err := svc.ParseToken(tok)
	require.NoError(t, err)
	require.Equal(t, domain.RoleTeacher, claims.Role)
}
