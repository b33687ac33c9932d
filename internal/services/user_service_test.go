package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fi-advisor/fi/internal/auth"
	"github.com/fi-advisor/fi/internal/database/testutil"
	"github.com/fi-advisor/fi/internal/models"
	apperrors "github.com/fi-advisor/fi/pkg/errors"
)

type fakeGoogle struct {
	enabled      bool
	identity     auth.GoogleIdentity
	err          error
	lastCode     string
	lastVerifier string
}

func (f *fakeGoogle) Enabled() bool { return f.enabled }

func (f *fakeGoogle) VerifyIDToken(_ context.Context, _ string) (auth.GoogleIdentity, error) {
	return f.identity, f.err
}

func (f *fakeGoogle) ExchangeCode(_ context.Context, code, verifier string) (auth.GoogleIdentity, error) {
	f.lastCode = code
	f.lastVerifier = verifier
	return f.identity, f.err
}

func (f *fakeGoogle) AuthCodeURL(_ context.Context, state, verifier string) (string, error) {
	if !f.enabled {
		return "", auth.ErrGoogleDisabled
	}
	return "https://accounts.example.com/auth?state=" + state + "&v=" + verifier, nil
}

func newUserService(t *testing.T, google GoogleAuthenticator, opts ...UserOption) *UserService {
	t.Helper()
	db := testutil.NewDB(t)
	svc, err := NewUserService(db, google, opts...)
	require.NoError(t, err)
	return svc
}

func TestUserServiceSignupAndLogin(t *testing.T) {
	svc := newUserService(t, nil)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{Email: " Asha@Example.com ", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.Equal(t, "asha@example.com", user.Email)
	require.Equal(t, "asha", user.Name)
	require.NotEqual(t, "s3cret-pass", user.Password)
	require.NotNil(t, user.FinancialProfile)
	require.Equal(t, "INR", user.FinancialProfile.Currency)

	_, err = svc.Signup(ctx, SignupInput{Email: "asha@example.com", Password: "other"})
	require.ErrorIs(t, err, ErrEmailTaken)

	logged, err := svc.Login(ctx, "ASHA@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.Equal(t, user.ID, logged.ID)
	require.NotNil(t, logged.LastLoginAt)

	_, err = svc.Login(ctx, "asha@example.com", "wrong")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestUserServiceSignupValidation(t *testing.T) {
	svc := newUserService(t, nil)

	_, err := svc.Signup(context.Background(), SignupInput{Email: "", Password: "x"})
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, 400, appErr.StatusCode)
}

func TestUserServiceGoogleLogin(t *testing.T) {
	google := &fakeGoogle{
		enabled: true,
		identity: auth.GoogleIdentity{
			Subject:       "g-123",
			Email:         "ravi@example.com",
			EmailVerified: true,
			Name:          "Ravi",
			Picture:       "https://example.com/ravi.png",
		},
	}
	svc := newUserService(t, google)
	ctx := context.Background()

	user, err := svc.LoginWithGoogle(ctx, GoogleLoginInput{IDToken: "token"})
	require.NoError(t, err)
	require.Equal(t, models.AuthProviderGoogle, user.AuthProvider)
	require.Equal(t, "g-123", user.GoogleID)

	again, err := svc.LoginWithGoogle(ctx, GoogleLoginInput{Code: "auth-code"})
	require.NoError(t, err)
	require.Equal(t, user.ID, again.ID)
	require.Equal(t, "auth-code", google.lastCode)

	_, err = svc.Login(ctx, "ravi@example.com", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "google accounts have no password")

	_, err = svc.LoginWithGoogle(ctx, GoogleLoginInput{})
	require.Error(t, err)

	google.err = auth.ErrGoogleEmailUnverified
	_, err = svc.LoginWithGoogle(ctx, GoogleLoginInput{IDToken: "token"})
	require.ErrorIs(t, err, auth.ErrGoogleEmailUnverified)
}

func TestUserServiceGoogleLinksExistingAccount(t *testing.T) {
	google := &fakeGoogle{enabled: true, identity: auth.GoogleIdentity{Subject: "g-9", Email: "meera@example.com"}}
	svc := newUserService(t, google)
	ctx := context.Background()

	created, err := svc.Signup(ctx, SignupInput{Email: "meera@example.com", Password: "pw"})
	require.NoError(t, err)

	linked, err := svc.LoginWithGoogle(ctx, GoogleLoginInput{IDToken: "t"})
	require.NoError(t, err)
	require.Equal(t, created.ID, linked.ID)
	require.Equal(t, "g-9", linked.GoogleID)
	require.Equal(t, models.AuthProviderLocal, linked.AuthProvider)
}

func TestUserServiceGoogleDisabled(t *testing.T) {
	svc := newUserService(t, &fakeGoogle{})
	_, err := svc.LoginWithGoogle(context.Background(), GoogleLoginInput{IDToken: "t"})
	require.ErrorIs(t, err, ErrGoogleSignInDisabled)
}

func TestUserServiceUpdateProfile(t *testing.T) {
	svc := newUserService(t, nil)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{Email: "dev@example.com", Password: "pw"})
	require.NoError(t, err)

	name := "Dev Patel"
	amount := "25000"
	currency := "usd"
	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{
		Name:              &name,
		Responses:         map[string]any{"q1": "35", "q3": "moderate"},
		MonthlyInvestable: &amount,
		Currency:          &currency,
	})
	require.NoError(t, err)
	require.Equal(t, "Dev Patel", updated.Name)
	require.Equal(t, "25000.00", updated.FinancialProfile.MonthlyInvestable)
	require.Equal(t, "USD", updated.FinancialProfile.Currency)
	require.True(t, updated.FinancialProfile.HasQuestionnaire())

	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Responses: map[string]any{"q2": "retirement"}})
	require.NoError(t, err)

	responses, err := svc.Responses(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "moderate", responses["q3"])
	require.Equal(t, "retirement", responses["q2"])

	bad := "-5"
	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{MonthlyInvestable: &bad})
	require.Error(t, err)

	unknown := "XYZ"
	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Currency: &unknown})
	require.Error(t, err)
}

func TestUserServiceRiskAssessmentAndDelete(t *testing.T) {
	svc := newUserService(t, nil)
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{Email: "del@example.com", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, svc.SaveRiskAssessment(ctx, user.ID, 7, "Aggressive"))
	loaded, err := svc.Session(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 7, loaded.FinancialProfile.RiskScore)
	require.Equal(t, "Aggressive", loaded.FinancialProfile.RiskProfile)
	require.NotNil(t, loaded.FinancialProfile.AssessedAt)

	require.NoError(t, svc.db.Create(&models.Recommendation{UserID: user.ID, Kind: models.RecommendationRisk}).Error)

	require.NoError(t, svc.DeleteProfile(ctx, user.ID))
	_, err = svc.GetProfile(ctx, user.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	var count int64
	require.NoError(t, svc.db.Model(&models.Recommendation{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.Zero(t, count)

	require.ErrorIs(t, svc.DeleteProfile(ctx, user.ID), ErrUserNotFound)
}

func TestUserServiceGoogleRedirectFlow(t *testing.T) {
	codec, err := auth.NewStateCodec("redirect-secret", time.Minute, nil)
	require.NoError(t, err)
	google := &fakeGoogle{enabled: true, identity: auth.GoogleIdentity{Subject: "g-7", Email: "ravi@example.com", Name: "Ravi"}}
	svc := newUserService(t, google, WithGoogleState(codec))
	ctx := context.Background()

	redirect, err := svc.GoogleAuthURL(ctx, "/dashboard")
	require.NoError(t, err)
	require.NotEmpty(t, redirect.State)
	require.Contains(t, redirect.URL, redirect.State)

	state, err := codec.Decode(redirect.State)
	require.NoError(t, err)

	user, err := svc.LoginWithGoogle(ctx, GoogleLoginInput{Code: "code-1", State: redirect.State})
	require.NoError(t, err)
	require.Equal(t, "ravi@example.com", user.Email)
	require.Equal(t, state.Verifier, google.lastVerifier)

	_, err = svc.LoginWithGoogle(ctx, GoogleLoginInput{Code: "code-2", State: "forged"})
	require.ErrorIs(t, err, auth.ErrStateInvalid)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusUnauthorized, appErr.StatusCode)
}

func TestUserServiceGoogleRedirectDisabled(t *testing.T) {
	svc := newUserService(t, &fakeGoogle{enabled: true})
	_, err := svc.GoogleAuthURL(context.Background(), "")
	require.ErrorIs(t, err, ErrGoogleSignInDisabled)
}
