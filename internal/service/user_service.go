package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/issuetracker/internal/model"
	appErr "github.com/xxxsen/issuetracker/internal/pkg/errors"
)

type UserService struct {
	users UserRepository
	now   func() time.Time
}

func NewUserService(users UserRepository) *UserService {
	return &UserService{users: users, now: time.Now}
}

var errNoUser = appErr.WithMessage(appErr.ErrNotFound, "No User Found")

func (s *UserService) Details(ctx context.Context, userID string) (*model.UserDetails, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, errNoUser
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	details := user.Details()
	return &details, nil
}

func (s *UserService) List(ctx context.Context) ([]model.UserDetails, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]model.UserDetails, 0, len(users))
	for _, user := range users {
		out = append(out, user.Details())
	}
	return out, nil
}

func (s *UserService) Edit(ctx context.Context, actor Actor, userID string, update model.UserProfileUpdate) (model.WriteResult, error) {
	if actor.UserID != userID {
		return model.WriteResult{}, appErr.WithMessage(appErr.ErrForbidden, "you can only edit your own details")
	}
	update = trimProfile(update)
	if update.Empty() {
		return model.WriteResult{}, appErr.WithMessage(appErr.ErrInvalid, "nothing to update")
	}
	if update.FirstName != nil && *update.FirstName == "" {
		return model.WriteResult{}, appErr.WithMessage(appErr.ErrInvalid, "firstName cannot be empty")
	}
	matched, modified, err := s.users.UpdateProfile(ctx, userID, update, s.now().UTC())
	if err != nil {
		if appErr.IsNotFound(err) {
			return model.WriteResult{}, errNoUser
		}
		return model.WriteResult{}, fmt.Errorf("update user: %w", err)
	}
	return model.UpdateResult(matched, modified), nil
}

func (s *UserService) Delete(ctx context.Context, actor Actor, userID string) (model.WriteResult, error) {
	if actor.UserID != userID {
		return model.WriteResult{}, appErr.WithMessage(appErr.ErrForbidden, "you can only delete your own account")
	}
	matched, err := s.users.SoftDelete(ctx, userID, s.now().UTC())
	if err != nil {
		if appErr.IsNotFound(err) {
			return model.WriteResult{}, errNoUser
		}
		return model.WriteResult{}, fmt.Errorf("delete user: %w", err)
	}
	logutil.GetLogger(ctx).Info("user deleted", zap.String("user_id", userID))
	return model.DeleteResult(matched), nil
}

func trimProfile(update model.UserProfileUpdate) model.UserProfileUpdate {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	return model.UserProfileUpdate{
		FirstName:    trim(update.FirstName),
		LastName:     trim(update.LastName),
		MobileNumber: trim(update.MobileNumber),
		Country:      trim(update.Country),
	}
}
