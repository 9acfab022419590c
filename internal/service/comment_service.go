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

type CommentService struct {
	comments CommentRepository
	issues   IssueRepository
	now      func() time.Time
}

func NewCommentService(comments CommentRepository, issues IssueRepository) *CommentService {
	return &CommentService{comments: comments, issues: issues, now: time.Now}
}

func (s *CommentService) Add(ctx context.Context, actor Actor, issueID, text string) (*model.Comment, error) {
	issueID = strings.TrimSpace(issueID)
	text = strings.TrimSpace(text)
	if issueID == "" || text == "" {
		return nil, appErr.WithMessage(appErr.ErrInvalid, "issueId and comment are required")
	}
	if _, err := s.issues.GetByID(ctx, issueID); err != nil {
		if appErr.IsNotFound(err) {
			return nil, errNoIssue
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}
	comment := &model.Comment{
		CommentID:   newID(),
		IssueID:     issueID,
		UserID:      actor.UserID,
		UserName:    actor.Name,
		Comment:     text,
		CommentedOn: s.now().UTC(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("issue_id", issueID),
		zap.String("comment_id", comment.CommentID),
	)
	// the comment itself is stored at this point; only the issue's id list lags
	if err := s.issues.AppendComment(ctx, issueID, comment.CommentID); err != nil {
		logger.Warn("link comment to issue failed", zap.Error(err))
	}
	logger.Info("comment added", zap.String("user_id", actor.UserID))
	return comment, nil
}

func (s *CommentService) ListByIssue(ctx context.Context, issueID string) ([]*model.Comment, error) {
	if _, err := s.issues.GetByID(ctx, issueID); err != nil {
		if appErr.IsNotFound(err) {
			return nil, errNoIssue
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}
	comments, err := s.comments.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
