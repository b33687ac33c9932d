package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fi-advisor/fi/internal/auth"
	"github.com/fi-advisor/fi/internal/models"
	"github.com/fi-advisor/fi/pkg/crypto"
	apperrors "github.com/fi-advisor/fi/pkg/errors"
	"github.com/fi-advisor/fi/pkg/metrics"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrEmailTaken is returned when signing up with an e-mail that already has an account.
	ErrEmailTaken = apperrors.New("EMAIL_TAKEN", "An account with this email already exists", http.StatusConflict)
	// ErrGoogleSignInDisabled is returned when Google sign-in is not configured.
	ErrGoogleSignInDisabled = apperrors.New("GOOGLE_DISABLED", "Google sign-in is not configured", http.StatusServiceUnavailable)
)

const defaultCurrency = "INR"

// GoogleAuthenticator verifies Google credentials.
type GoogleAuthenticator interface {
	Enabled() bool
	VerifyIDToken(ctx context.Context, raw string) (auth.GoogleIdentity, error)
	ExchangeCode(ctx context.Context, code, verifier string) (auth.GoogleIdentity, error)
	AuthCodeURL(ctx context.Context, state, verifier string) (string, error)
}

// SignupInput describes a password sign-up.
type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// GoogleLoginInput carries either a Google ID token or an authorization code. State is
// the value returned by GoogleAuthURL and is required for codes from the redirect flow.
type GoogleLoginInput struct {
	IDToken string
	Code    string
	State   string
}

// GoogleRedirect is the consent screen URL and the state the callback must echo.
type GoogleRedirect struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// UpdateProfileInput enumerates mutable profile attributes. Nil fields are left untouched.
type UpdateProfileInput struct {
	Name              *string
	PhotoURL          *string
	Preferences       map[string]any
	Responses         map[string]any
	MonthlyInvestable *string
	Currency          *string
}

// UserService manages accounts and their financial profiles.
type UserService struct {
	db     *gorm.DB
	google GoogleAuthenticator
	states *auth.StateCodec
	now    func() time.Time
}

// UserOption customises a UserService.
type UserOption func(*UserService)

// WithGoogleState enables the redirect sign-in flow.
func WithGoogleState(codec *auth.StateCodec) UserOption {
	return func(s *UserService) { s.states = codec }
}

// NewUserService constructs a UserService. google may be nil when Google sign-in is disabled.
func NewUserService(db *gorm.DB, google GoogleAuthenticator, opts ...UserOption) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	svc := &UserService{db: db, google: google, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// GoogleAuthURL starts the redirect sign-in flow.
func (s *UserService) GoogleAuthURL(ctx context.Context, returnURL string) (GoogleRedirect, error) {
	ctx = ensureContext(ctx)
	if s.google == nil || !s.google.Enabled() || s.states == nil {
		return GoogleRedirect{}, ErrGoogleSignInDisabled
	}

	state, token, err := s.states.Begin(returnURL)
	if err != nil {
		return GoogleRedirect{}, fmt.Errorf("user service: google state: %w", err)
	}
	target, err := s.google.AuthCodeURL(ctx, token, state.Verifier)
	if err != nil {
		if errors.Is(err, auth.ErrGoogleDisabled) {
			return GoogleRedirect{}, ErrGoogleSignInDisabled
		}
		return GoogleRedirect{}, apperrors.ErrServiceDisabled.WithInternal(err)
	}
	return GoogleRedirect{URL: target, State: token}, nil
}

// Signup provisions a password account together with an empty financial profile.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := normaliseEmail(input.Email)
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		Email:        email,
		Name:         firstNonEmpty(input.Name, localPart(email)),
		Password:     hashed,
		AuthProvider: models.AuthProviderLocal,
		LastLoginAt:  &now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		profile := &models.FinancialProfile{UserID: user.ID, Currency: defaultCurrency}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		user.FinancialProfile = profile
		return nil
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("user service: signup: %w", err)
	}
	return user, nil
}

// Login authenticates a password account.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "email = ?", normaliseEmail(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("password", "failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user service: login: %w", err)
	}

	if user.Password == "" || !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("password", "failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.touchLogin(ctx, &user); err != nil {
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("password", "success").Inc()
	return &user, nil
}

// LoginWithGoogle signs in with a Google credential, creating the account on first use.
// An existing password account with the same e-mail is linked to the Google identity.
func (s *UserService) LoginWithGoogle(ctx context.Context, input GoogleLoginInput) (*models.User, error) {
	ctx = ensureContext(ctx)
	if s.google == nil || !s.google.Enabled() {
		return nil, ErrGoogleSignInDisabled
	}

	var (
		identity auth.GoogleIdentity
		err      error
	)
	switch {
	case strings.TrimSpace(input.IDToken) != "":
		identity, err = s.google.VerifyIDToken(ctx, strings.TrimSpace(input.IDToken))
	case strings.TrimSpace(input.Code) != "":
		var verifier string
		if strings.TrimSpace(input.State) != "" {
			if s.states == nil {
				return nil, apperrors.NewBadRequest("redirect sign-in is not enabled")
			}
			state, stateErr := s.states.Decode(input.State)
			if stateErr != nil {
				metrics.AuthAttempts.WithLabelValues("google", "failure").Inc()
				return nil, apperrors.ErrUnauthorized.WithInternal(stateErr)
			}
			verifier = state.Verifier
		}
		identity, err = s.google.ExchangeCode(ctx, strings.TrimSpace(input.Code), verifier)
	default:
		return nil, apperrors.NewBadRequest("id_token or code is required")
	}
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("google", "failure").Inc()
		return nil, apperrors.ErrUnauthorized.WithInternal(err)
	}

	email := normaliseEmail(identity.Email)
	var user models.User
	err = s.db.WithContext(ctx).Take(&user, "email = ?", email).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		now := s.now()
		user = models.User{
			Email:        email,
			Name:         firstNonEmpty(identity.Name, localPart(email)),
			AuthProvider: models.AuthProviderGoogle,
			GoogleID:     identity.Subject,
			PhotoURL:     identity.Picture,
			LastLoginAt:  &now,
		}
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			return tx.Create(&models.FinancialProfile{UserID: user.ID, Currency: defaultCurrency}).Error
		})
		if err != nil {
			if isDuplicateKey(err) {
				return nil, ErrEmailTaken
			}
			return nil, fmt.Errorf("user service: create google user: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("user service: google login: %w", err)
	default:
		updates := map[string]any{}
		if user.GoogleID == "" {
			user.GoogleID = identity.Subject
			updates["google_id"] = identity.Subject
		}
		if user.PhotoURL == "" && identity.Picture != "" {
			user.PhotoURL = identity.Picture
			updates["photo_url"] = identity.Picture
		}
		if len(updates) > 0 {
			if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("user service: link google identity: %w", err)
			}
		}
		if err := s.touchLogin(ctx, &user); err != nil {
			return nil, err
		}
	}

	metrics.AuthAttempts.WithLabelValues("google", "success").Inc()
	return &user, nil
}

// Session loads the signed-in user, records the visit and ensures a profile row exists.
func (s *UserService) Session(ctx context.Context, userID string) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.touchLogin(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetProfile loads a user with its financial profile, creating the profile if missing.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Preload("FinancialProfile").Take(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get profile: %w", err)
	}

	if user.FinancialProfile == nil {
		profile := &models.FinancialProfile{UserID: user.ID, Currency: defaultCurrency}
		if err := s.db.WithContext(ctx).Create(profile).Error; err != nil && !isDuplicateKey(err) {
			return nil, fmt.Errorf("user service: create profile: %w", err)
		}
		user.FinancialProfile = profile
	}
	return &user, nil
}

// UpdateProfile applies the supplied changes. Questionnaire responses are merged into the stored answers.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := user.FinancialProfile

	userUpdates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewBadRequest("name cannot be empty")
		}
		userUpdates["name"] = name
	}
	if input.PhotoURL != nil {
		userUpdates["photo_url"] = strings.TrimSpace(*input.PhotoURL)
	}
	if input.Preferences != nil {
		merged := jsonObject(user.Preferences)
		for key, value := range input.Preferences {
			merged[key] = value
		}
		raw, err := toJSON(merged)
		if err != nil {
			return nil, apperrors.NewBadRequest("preferences must be a JSON object")
		}
		userUpdates["preferences"] = raw
	}

	profileUpdates := map[string]any{}
	if input.Responses != nil {
		merged := jsonObject(profile.Responses)
		for key, value := range input.Responses {
			merged[key] = value
		}
		raw, err := toJSON(merged)
		if err != nil {
			return nil, apperrors.NewBadRequest("responses must be a JSON object")
		}
		profileUpdates["responses"] = raw
	}
	if input.MonthlyInvestable != nil {
		amount, err := parseAmount(*input.MonthlyInvestable)
		if err != nil {
			return nil, err
		}
		profileUpdates["monthly_investable"] = amount
	}
	if input.Currency != nil {
		code := strings.ToUpper(strings.TrimSpace(*input.Currency))
		if money.GetCurrency(code) == nil {
			return nil, apperrors.NewBadRequest("unknown currency " + code)
		}
		profileUpdates["currency"] = code
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(userUpdates) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(userUpdates).Error; err != nil {
				return err
			}
		}
		if len(profileUpdates) > 0 {
			if err := tx.Model(&models.FinancialProfile{}).Where("user_id = ?", user.ID).Updates(profileUpdates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("user service: update profile: %w", err)
	}

	return s.GetProfile(ctx, userID)
}

// SaveRiskAssessment records the outcome of a risk assessment on the user's profile.
func (s *UserService) SaveRiskAssessment(ctx context.Context, userID string, score int, riskProfile string) error {
	ctx = ensureContext(ctx)

	if _, err := s.GetProfile(ctx, userID); err != nil {
		return err
	}
	now := s.now()
	err := s.db.WithContext(ctx).Model(&models.FinancialProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"risk_score":   score,
			"risk_profile": riskProfile,
			"assessed_at":  now,
		}).Error
	if err != nil {
		return fmt.Errorf("user service: save risk assessment: %w", err)
	}
	return nil
}

// Responses returns the stored questionnaire answers of a user.
func (s *UserService) Responses(ctx context.Context, userID string) (map[string]any, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return jsonObject(user.FinancialProfile.Responses), nil
}

// DeleteProfile removes the user and every record owned by it.
func (s *UserService) DeleteProfile(ctx context.Context, userID string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Take(&user, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		owned := []any{
			&models.DocumentAnalysis{},
			&models.Document{},
			&models.Recommendation{},
			&models.FinancialProfile{},
			&models.Session{},
		}
		for _, model := range owned {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("user service: delete profile: %w", err)
	}
	return nil
}

func (s *UserService) touchLogin(ctx context.Context, user *models.User) error {
	now := s.now()
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("last_login_at", now).Error; err != nil {
		return fmt.Errorf("user service: record login: %w", err)
	}
	user.LastLoginAt = &now
	return nil
}

func parseAmount(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return "", apperrors.NewBadRequest("monthly_investable must be a decimal number")
	}
	if amount.IsNegative() {
		return "", apperrors.NewBadRequest("monthly_investable cannot be negative")
	}
	return amount.StringFixed(2), nil
}

func localPart(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
