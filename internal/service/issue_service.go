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

type IssueService struct {
	issues IssueRepository
	now    func() time.Time
}

func NewIssueService(issues IssueRepository) *IssueService {
	return &IssueService{issues: issues, now: time.Now}
}

type IssueInput struct {
	IssueTitle  string
	Status      string
	Description string
	Assignee    string
	Attachments []string
}

var errNoIssue = appErr.WithMessage(appErr.ErrNotFound, "No Issue Found")

func (s *IssueService) Register(ctx context.Context, actor Actor, in IssueInput) (*model.Issue, error) {
	title := strings.TrimSpace(in.IssueTitle)
	if title == "" {
		return nil, appErr.WithMessage(appErr.ErrInvalid, "issueTitle is required")
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = model.IssueStatusBacklog
	}
	if !model.ValidIssueStatus(status) {
		return nil, appErr.WithMessage(appErr.ErrInvalid, "invalid issue status")
	}
	now := s.now().UTC()
	issue := &model.Issue{
		IssueID:      newID(),
		IssueTitle:   title,
		ReporterID:   actor.UserID,
		ReporterName: actor.Name,
		Status:       status,
		Description:  strings.TrimSpace(in.Description),
		Attachments:  cleanAttachments(in.Attachments),
		Assignee:     strings.TrimSpace(in.Assignee),
		Comments:     []string{},
		Watchers:     []string{},
		ReportedOn:   now,
		ModifiedOn:   now,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	logutil.GetLogger(ctx).Info("issue registered",
		zap.String("issue_id", issue.IssueID),
		zap.String("user_id", actor.UserID),
	)
	return issue, nil
}

func (s *IssueService) List(ctx context.Context) ([]*model.Issue, error) {
	issues, err := s.issues.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return issues, nil
}

func (s *IssueService) Get(ctx context.Context, issueID string) (*model.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, errNoIssue
		}
		return nil, fmt.Errorf("get issue: %w", err)
	}
	return issue, nil
}

func (s *IssueService) Edit(ctx context.Context, issueID string, update model.IssueUpdate) (model.WriteResult, error) {
	if update.Empty() {
		return model.WriteResult{}, appErr.WithMessage(appErr.ErrInvalid, "nothing to update")
	}
	if update.IssueTitle != nil {
		title := strings.TrimSpace(*update.IssueTitle)
		if title == "" {
			return model.WriteResult{}, appErr.WithMessage(appErr.ErrInvalid, "issueTitle cannot be empty")
		}
		update.IssueTitle = &title
	}
	if update.Status != nil && !model.ValidIssueStatus(*update.Status) {
		return model.WriteResult{}, appErr.WithMessage(appErr.ErrInvalid, "invalid issue status")
	}
	if update.Attachments != nil {
		cleaned := cleanAttachments(*update.Attachments)
		update.Attachments = &cleaned
	}
	matched, modified, err := s.issues.Update(ctx, issueID, update, s.now().UTC())
	if err != nil {
		if appErr.IsNotFound(err) {
			return model.WriteResult{}, errNoIssue
		}
		return model.WriteResult{}, fmt.Errorf("update issue: %w", err)
	}
	return model.UpdateResult(matched, modified), nil
}

// Delete is limited to the issue's reporter.
func (s *IssueService) Delete(ctx context.Context, actor Actor, issueID string) (model.WriteResult, error) {
	issue, err := s.Get(ctx, issueID)
	if err != nil {
		return model.WriteResult{}, err
	}
	if issue.ReporterID != actor.UserID {
		return model.WriteResult{}, appErr.WithMessage(appErr.ErrForbidden, "only the reporter can delete this issue")
	}
	matched, err := s.issues.SoftDelete(ctx, issueID, s.now().UTC())
	if err != nil {
		if appErr.IsNotFound(err) {
			return model.WriteResult{}, errNoIssue
		}
		return model.WriteResult{}, fmt.Errorf("delete issue: %w", err)
	}
	logutil.GetLogger(ctx).Info("issue deleted",
		zap.String("issue_id", issueID),
		zap.String("user_id", actor.UserID),
	)
	return model.DeleteResult(matched), nil
}

func (s *IssueService) Watch(ctx context.Context, actor Actor, issueID string) (model.WriteResult, error) {
	matched, modified, err := s.issues.AddWatcher(ctx, issueID, actor.UserID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return model.WriteResult{}, errNoIssue
		}
		return model.WriteResult{}, fmt.Errorf("watch issue: %w", err)
	}
	return model.UpdateResult(matched, modified), nil
}

func cleanAttachments(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
