package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgauth "github.com/vrukshaservices/vruksha-backend/pkg/auth"
	"github.com/vrukshaservices/vruksha-backend/pkg/config"
	"github.com/vrukshaservices/vruksha-backend/pkg/db/models"
	pkgerrors "github.com/vrukshaservices/vruksha-backend/pkg/errors"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
	"github.com/vrukshaservices/vruksha-backend/pkg/mailer"
	"github.com/vrukshaservices/vruksha-backend/pkg/security"
)

// UserStore is the persistence surface the auth flows need.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, email, hashed string) error
	GetProfile(ctx context.Context, userID int) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, profile *models.UserProfile) error
}

// OTPStore persists password-reset codes.
type OTPStore interface {
	Create(ctx context.Context, otp *models.PasswordResetOTP) error
	Latest(ctx context.Context, email string) (*models.PasswordResetOTP, error)
	MarkUsed(ctx context.Context, id int) error
}

type Service struct {
	users  UserStore
	otps   OTPStore
	mail   *mailer.Mailer
	jwtCfg config.JWTConfig
	pwCfg  config.PasswordConfig
	logger *logger.Logger
	now    func() time.Time
}

func NewService(users UserStore, otps OTPStore, mail *mailer.Mailer, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig, logg *logger.Logger) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if otps == nil {
		return nil, fmt.Errorf("otp store is required")
	}
	return &Service{
		users:  users,
		otps:   otps,
		mail:   mail,
		jwtCfg: jwtCfg,
		pwCfg:  pwCfg,
		logger: logg,
		now:    time.Now,
	}, nil
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required"`
}

// UserView is the account shape returned to clients; it never carries the
// password hash.
type UserView struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	IsAdmin bool   `json:"is_admin"`
}

type AuthResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if !security.IsStrongPassword(input.Password) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"password must be at least 8 characters with uppercase, lowercase, digit, and special character")
	}

	hashed, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Name:           strings.TrimSpace(input.Name),
		Email:          strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:          strings.TrimSpace(input.Phone),
		HashedPassword: hashed,
		IsActive:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithUserID(ctx, user.ID), "auth.registered")
	}
	return s.issueToken(user)
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		// A missing account and a wrong password present identically.
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is disabled")
	}

	ok, err := security.VerifyPassword(input.Password, user.HashedPassword)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithUserID(ctx, user.ID), "auth.login")
	}
	return s.issueToken(user)
}

func (s *Service) issueToken(user *models.User) (*AuthResult, error) {
	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	return &AuthResult{Token: token, User: toUserView(user)}, nil
}

func toUserView(user *models.User) UserView {
	return UserView{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Phone:   user.Phone,
		IsAdmin: user.IsAdmin,
	}
}

// ProfileView combines the account and its shipping profile.
type ProfileView struct {
	UserView
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Pincode *string `json:"pincode"`
}

func (s *Service) Me(ctx context.Context, userID int) (*ProfileView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &ProfileView{UserView: toUserView(user)}
	if profile != nil {
		view.Address = profile.Address
		view.City = profile.City
		view.State = profile.State
		view.Pincode = profile.Pincode
	}
	return view, nil
}

type ProfileInput struct {
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Pincode *string `json:"pincode"`
}

func (s *Service) UpdateProfile(ctx context.Context, userID int, input ProfileInput) (*ProfileView, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		UserID:  userID,
		Address: input.Address,
		City:    input.City,
		State:   input.State,
		Pincode: input.Pincode,
	}
	if err := s.users.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return s.Me(ctx, userID)
}

const otpTTL = 10 * time.Minute

// ForgotPassword issues a reset code. The response never reveals whether the
// email is registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn(ctx, "auth.forgot_password_unknown_email")
		}
		return nil
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}

	otp := &models.PasswordResetOTP{
		Email:     user.Email,
		OTP:       code,
		ExpiresAt: s.now().UTC().Add(otpTTL),
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return err
	}

	if s.mail != nil {
		s.mail.SendTo(ctx, user.Email, "Your password reset code",
			fmt.Sprintf("Your Vruksha Services password reset code is %s. It expires in 10 minutes.", code))
	}
	return nil
}

type VerifyOTPResult struct {
	ResetToken string `json:"reset_token"`
}

// VerifyOTP checks the code and mints a short-lived reset token. The code
// stays unused until the password actually changes, so a dropped connection
// lets the user retry verification.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*VerifyOTPResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired code")
	}

	otp, err := s.otps.Latest(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if otp == nil || !security.CompareOTP(otp.OTP, code) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid or expired code")
	}

	token, err := pkgauth.MintResetToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint reset token")
	}
	return &VerifyOTPResult{ResetToken: token}, nil
}

// ResetPassword consumes a reset token and the matching code, then writes
// the new password.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	claims, err := pkgauth.ParseAccessToken(s.jwtCfg, resetToken)
	if err != nil || claims.Kind != pkgauth.TokenKindReset {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid reset token")
	}

	if !security.IsStrongPassword(newPassword) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			"password must be at least 8 characters with uppercase, lowercase, digit, and special character")
	}

	otp, err := s.otps.Latest(ctx, claims.Email)
	if err != nil {
		return err
	}
	if otp == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "reset code expired")
	}

	hashed, err := security.HashPassword(newPassword, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.users.UpdatePassword(ctx, claims.Email, hashed); err != nil {
		return err
	}
	if err := s.otps.MarkUsed(ctx, otp.ID); err != nil && s.logger != nil {
		s.logger.Warn(ctx, "auth.otp_mark_used_failed")
	}

	if s.logger != nil {
		s.logger.Info(s.logger.WithUserID(ctx, claims.UserID), "auth.password_reset")
	}
	return nil
}
