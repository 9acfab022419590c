package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/issuetracker/internal/limiter"
	"github.com/xxxsen/issuetracker/internal/model"
	appErr "github.com/xxxsen/issuetracker/internal/pkg/errors"
	"github.com/xxxsen/issuetracker/internal/pkg/jwt"
	"github.com/xxxsen/issuetracker/internal/pkg/password"
)

type AuthService struct {
	users    UserRepository
	tokens   *jwt.Issuer
	sender   EmailSender
	cooldown limiter.Limiter
	baseURL  string
	now      func() time.Time
}

func NewAuthService(users UserRepository, tokens *jwt.Issuer, sender EmailSender, cooldown limiter.Limiter, baseURL string) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		sender:   sender,
		cooldown: cooldown,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		now:      time.Now,
	}
}

type SignupInput struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	MobileNumber string
	Country      string
}

type LoginResult struct {
	AuthToken   string            `json:"authToken"`
	UserDetails model.UserDetails `json:"userDetails"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*model.UserDetails, error) {
	email := normalizeEmail(in.Email)
	firstName := strings.TrimSpace(in.FirstName)
	if firstName == "" {
		return nil, appErr.WithMessage(appErr.ErrInvalid, "firstName is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, appErr.WithMessage(appErr.ErrInvalid, "a valid email is required")
	}
	hash, err := password.Hash(in.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return nil, appErr.WithMessage(appErr.ErrInvalid, fmt.Sprintf("password must be at least %d characters", password.MinLength))
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	user := &model.User{
		UserID:       newID(),
		FirstName:    firstName,
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		MobileNumber: strings.TrimSpace(in.MobileNumber),
		Country:      strings.TrimSpace(in.Country),
		PasswordHash: hash,
		CreatedOn:    now,
		ModifiedOn:   now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if appErr.IsConflict(err) {
			return nil, appErr.WithMessage(appErr.ErrConflict, "User Already Present With this Email")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", user.UserID))
	logger.Info("user signed up")
	if err := s.sendVerification(ctx, user); err != nil {
		logger.Error("send verification mail failed", zap.Error(err))
	}
	details := user.Details()
	return &details, nil
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || plainPassword == "" {
		return nil, appErr.WithMessage(appErr.ErrInvalid, "email and password are required")
	}
	logger := logutil.GetLogger(ctx)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if appErr.IsNotFound(err) {
			logger.Info("login rejected: unknown email")
			return nil, appErr.ErrAuthFailed
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		logger.Info("login rejected: wrong password", zap.String("user_id", user.UserID))
		return nil, appErr.ErrAuthFailed
	}
	token, _, err := s.tokens.IssueSession(identityOf(user))
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	logger.Info("user logged in", zap.String("user_id", user.UserID))
	return &LoginResult{AuthToken: token, UserDetails: user.Details()}, nil
}

// Logout has nothing to revoke; the client drops its token.
func (s *AuthService) Logout(ctx context.Context, userID string) {
	logutil.GetLogger(ctx).Info("user logged out", zap.String("user_id", userID))
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return appErr.WithMessage(appErr.ErrInvalid, "User email address is missing")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return appErr.WithMessage(appErr.ErrNotFound, "No user Details Found")
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if err := s.checkCooldown(ctx, "reset:"+user.UserID); err != nil {
		return err
	}
	token, err := s.tokens.IssueReset(user.UserID, user.TokenVersion)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	link := fmt.Sprintf("%s/resetPassword?token=%s", s.baseURL, url.QueryEscape(token))
	body := fmt.Sprintf("Hi %s,\n\nUse the link below to choose a new password. It expires in %d minutes and works once.\n\n%s\n\nIf you did not ask for this, ignore this mail.",
		user.FirstName, int(s.tokens.ResetTTL().Minutes()), link)
	if err := s.sender.Send(ctx, user.Email, "Reset your password", body); err != nil {
		s.releaseCooldown(ctx, "reset:"+user.UserID)
		return fmt.Errorf("send reset mail: %w", err)
	}
	logutil.GetLogger(ctx).Info("password reset mail sent", zap.String("user_id", user.UserID))
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return appErr.WithMessage(appErr.ErrInvalid, "reset token is missing")
	}
	if newPassword == "" {
		return appErr.WithMessage(appErr.ErrInvalid, "Password is missing")
	}
	claims, err := s.tokens.ParseAction(token, jwt.PurposeReset)
	if err != nil {
		return appErr.WithMessage(appErr.ErrUnauthorized, "reset link is invalid or expired")
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		if errors.Is(err, password.ErrTooShort) {
			return appErr.WithMessage(appErr.ErrInvalid, fmt.Sprintf("password must be at least %d characters", password.MinLength))
		}
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, claims.Subject, claims.Version, hash, s.now().UTC()); err != nil {
		if appErr.IsNotFound(err) {
			return appErr.WithMessage(appErr.ErrUnauthorized, "reset link has already been used")
		}
		return fmt.Errorf("update password: %w", err)
	}
	logutil.GetLogger(ctx).Info("password reset", zap.String("user_id", claims.Subject))
	return nil
}

// VerifyUser moves a user from unverified to verified. Repeating it for an
// already verified user succeeds without changes.
func (s *AuthService) VerifyUser(ctx context.Context, userID, token string) error {
	userID = strings.TrimSpace(userID)
	token = strings.TrimSpace(token)
	if userID == "" || token == "" {
		return appErr.WithMessage(appErr.ErrInvalid, "userId and token are required")
	}
	claims, err := s.tokens.ParseAction(token, jwt.PurposeVerify)
	if err != nil || claims.Subject != userID {
		return appErr.WithMessage(appErr.ErrUnauthorized, "verification link is invalid or expired")
	}
	changed, err := s.users.MarkVerified(ctx, userID, claims.Email, s.now().UTC())
	if err != nil {
		if appErr.IsNotFound(err) {
			return appErr.WithMessage(appErr.ErrNotFound, "No User Found")
		}
		return fmt.Errorf("mark verified: %w", err)
	}
	logutil.GetLogger(ctx).Info("user verification checked",
		zap.String("user_id", userID),
		zap.Bool("changed", changed),
	)
	return nil
}

func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return appErr.WithMessage(appErr.ErrInvalid, "User email address is missing")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return appErr.WithMessage(appErr.ErrNotFound, "No user Details Found")
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if user.UserVerificationStatus {
		return nil
	}
	if err := s.checkCooldown(ctx, "verify:"+user.UserID); err != nil {
		return err
	}
	if err := s.sendVerification(ctx, user); err != nil {
		s.releaseCooldown(ctx, "verify:"+user.UserID)
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}

func (s *AuthService) sendVerification(ctx context.Context, user *model.User) error {
	token, err := s.tokens.IssueVerify(user.UserID, user.Email)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/api/v1/users/%s/verifyUser?token=%s", s.baseURL, url.PathEscape(user.UserID), url.QueryEscape(token))
	body := fmt.Sprintf("Hi %s,\n\nConfirm your email address by opening the link below.\n\n%s\n", user.FirstName, link)
	return s.sender.Send(ctx, user.Email, "Verify your email", body)
}

func (s *AuthService) checkCooldown(ctx context.Context, key string) error {
	if s.cooldown == nil {
		return nil
	}
	ok, err := s.cooldown.Allow(ctx, key)
	if err != nil {
		return fmt.Errorf("check cooldown: %w", err)
	}
	if !ok {
		return appErr.WithMessage(appErr.ErrTooMany, "please wait before requesting another mail")
	}
	return nil
}

// releaseCooldown hands the window back after a failed send so the caller can
// retry right away.
func (s *AuthService) releaseCooldown(ctx context.Context, key string) {
	if s.cooldown == nil {
		return
	}
	if err := s.cooldown.Release(ctx, key); err != nil {
		logutil.GetLogger(ctx).Error("release cooldown failed", zap.String("key", key), zap.Error(err))
	}
}

func identityOf(user *model.User) jwt.Identity {
	return jwt.Identity{
		UserID:    user.UserID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Verified:  user.UserVerificationStatus,
	}
}
