package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algoviz-app/algoviz_api/dto"
	"github.com/algoviz-app/algoviz_api/shared"
)

func newTestAuth(t *testing.T) (*AuthService, *SqlService) {
	t.Helper()

	sqlSvc := newTestSql(t)
	return &AuthService{sqlSvc: sqlSvc, jwtSvc: newTestJWT()}, sqlSvc
}

func TestRegisterStoresCanonicalID(t *testing.T) {
	svc, sqlSvc := newTestAuth(t)

	res, err := svc.Register(dto.RegisterRequest{
		Email:    "Amy.Lee@Example.com",
		Name:     "Amy Lee",
		Password: "SecurePass123!",
	})
	require.NoError(t, err)
	require.Equal(t, "amy_lee@example_com", res.UserID)

	user, err := sqlSvc.GetUser("amy_lee@example_com")
	require.NoError(t, err)
	require.Equal(t, "credentials", user.Provider)
	require.NotEqual(t, "SecurePass123!", user.Password)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuth(t)

	req := dto.RegisterRequest{
		Email:    "ben@example.com",
		Name:     "Ben",
		Password: "SecurePass123!",
	}

	_, err := svc.Register(req)
	require.NoError(t, err)

	_, err = svc.Register(req)
	require.Error(t, err)

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	require.Equal(t, 409, appErr.StatusCode)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc, _ := newTestAuth(t)

	_, err := svc.Register(dto.RegisterRequest{
		Email:    "cara@example.com",
		Name:     "Cara",
		Password: "SecurePass123!",
	})
	require.NoError(t, err)

	res, err := svc.Login(dto.LoginRequest{
		Email:    "cara@example.com",
		Password: "SecurePass123!",
	})
	require.NoError(t, err)
	require.Equal(t, "cara@example_com", res.UserID)
	require.NotEmpty(t, res.Tokens.AccessToken)

	claims, err := svc.jwtSvc.VerifyJWTToken(res.Tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "cara@example_com", claims.UserID)
	require.Equal(t, shared.RoleUser, claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestAuth(t)

	_, err := svc.Register(dto.RegisterRequest{
		Email:    "dan@example.com",
		Name:     "Dan",
		Password: "SecurePass123!",
	})
	require.NoError(t, err)

	// Wrong password and unknown account fail the same way; neither leaks
	// which half was wrong.
	_, err = svc.Login(dto.LoginRequest{Email: "dan@example.com", Password: "wrong"})
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	require.Equal(t, 401, appErr.StatusCode)

	_, err = svc.Login(dto.LoginRequest{Email: "ghost@example.com", Password: "SecurePass123!"})
	require.Error(t, err)
	appErr, ok = shared.GetAppError(err)
	require.True(t, ok)
	require.Equal(t, 401, appErr.StatusCode)
}
