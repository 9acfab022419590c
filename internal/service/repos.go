package service

import (
	"context"
	"time"

	"github.com/xxxsen/issuetracker/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, userID string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	UpdateProfile(ctx context.Context, userID string, update model.UserProfileUpdate, mtime time.Time) (int64, int64, error)
	// UpdatePassword must fail with ErrNotFound unless the stored token
	// version equals expectedVersion, and must increment it on success.
	UpdatePassword(ctx context.Context, userID string, expectedVersion int64, passwordHash string, mtime time.Time) error
	MarkVerified(ctx context.Context, userID, email string, mtime time.Time) (bool, error)
	SoftDelete(ctx context.Context, userID string, mtime time.Time) (int64, error)
}

type IssueRepository interface {
	Create(ctx context.Context, issue *model.Issue) error
	List(ctx context.Context) ([]*model.Issue, error)
	GetByID(ctx context.Context, issueID string) (*model.Issue, error)
	Update(ctx context.Context, issueID string, update model.IssueUpdate, mtime time.Time) (int64, int64, error)
	SoftDelete(ctx context.Context, issueID string, mtime time.Time) (int64, error)
	AddWatcher(ctx context.Context, issueID, userID string) (int64, int64, error)
	AppendComment(ctx context.Context, issueID, commentID string) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByIssue(ctx context.Context, issueID string) ([]*model.Comment, error)
}

// Actor is the authenticated caller, taken from the session token.
type Actor struct {
	UserID string
	Name   string
}
