package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xxxsen/issuetracker/internal/model"
	appErr "github.com/xxxsen/issuetracker/internal/pkg/errors"
)

// MemoryStore keeps every collection in process. Each method holds the lock
// for the whole read-modify-write, matching mongo's single document atomicity.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]*model.User
	issues   map[string]*model.Issue
	comments []*model.Comment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:  make(map[string]*model.User),
		issues: make(map[string]*model.Issue),
	}
}

func (s *MemoryStore) Users() *MemoryUserRepo {
	return &MemoryUserRepo{s: s}
}

func (s *MemoryStore) Issues() *MemoryIssueRepo {
	return &MemoryIssueRepo{s: s}
}

func (s *MemoryStore) Comments() *MemoryCommentRepo {
	return &MemoryCommentRepo{s: s}
}

type MemoryUserRepo struct {
	s *MemoryStore
}

func (r *MemoryUserRepo) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.UserID]; ok {
		return appErr.ErrConflict
	}
	for _, item := range r.s.users {
		if item.Email == user.Email {
			return appErr.ErrConflict
		}
	}
	clone := *user
	r.s.users[user.UserID] = &clone
	return nil
}

func (r *MemoryUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, item := range r.s.users {
		if item.Email == email && !item.Deleted {
			clone := *item
			return &clone, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (r *MemoryUserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.liveUser(userID)
	if !ok {
		return nil, appErr.ErrNotFound
	}
	clone := *item
	return &clone, nil
}

func (r *MemoryUserRepo) List(ctx context.Context) ([]*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := make([]*model.User, 0, len(r.s.users))
	for _, item := range r.s.users {
		if item.Deleted {
			continue
		}
		clone := *item
		users = append(users, &clone)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedOn.Before(users[j].CreatedOn)
	})
	return users, nil
}

func (r *MemoryUserRepo) UpdateProfile(ctx context.Context, userID string, update model.UserProfileUpdate, mtime time.Time) (int64, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.liveUser(userID)
	if !ok {
		return 0, 0, appErr.ErrNotFound
	}
	if update.FirstName != nil {
		item.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		item.LastName = *update.LastName
	}
	if update.MobileNumber != nil {
		item.MobileNumber = *update.MobileNumber
	}
	if update.Country != nil {
		item.Country = *update.Country
	}
	item.ModifiedOn = mtime
	return 1, 1, nil
}

func (r *MemoryUserRepo) UpdatePassword(ctx context.Context, userID string, expectedVersion int64, passwordHash string, mtime time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.liveUser(userID)
	if !ok || item.TokenVersion != expectedVersion {
		return appErr.ErrNotFound
	}
	item.PasswordHash = passwordHash
	item.TokenVersion++
	item.ModifiedOn = mtime
	return nil
}

func (r *MemoryUserRepo) MarkVerified(ctx context.Context, userID, email string, mtime time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.liveUser(userID)
	if !ok || item.Email != email {
		return false, appErr.ErrNotFound
	}
	if item.UserVerificationStatus {
		return false, nil
	}
	item.UserVerificationStatus = true
	item.ModifiedOn = mtime
	return true, nil
}

func (r *MemoryUserRepo) SoftDelete(ctx context.Context, userID string, mtime time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.liveUser(userID)
	if !ok {
		return 0, appErr.ErrNotFound
	}
	item.Deleted = true
	item.TokenVersion++
	item.ModifiedOn = mtime
	return 1, nil
}

func (s *MemoryStore) liveUser(userID string) (*model.User, bool) {
	item, ok := s.users[userID]
	if !ok || item.Deleted {
		return nil, false
	}
	return item, true
}

type MemoryIssueRepo struct {
	s *MemoryStore
}

func (r *MemoryIssueRepo) Create(ctx context.Context, issue *model.Issue) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.issues[issue.IssueID]; ok {
		return appErr.ErrConflict
	}
	r.s.issues[issue.IssueID] = cloneIssue(issue)
	return nil
}

func (r *MemoryIssueRepo) List(ctx context.Context) ([]*model.Issue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	issues := make([]*model.Issue, 0, len(r.s.issues))
	for _, item := range r.s.issues {
		if !item.Deleted {
			issues = append(issues, cloneIssue(item))
		}
	}
	sort.Slice(issues, func(i, j int) bool {
		return issues[i].ReportedOn.After(issues[j].ReportedOn)
	})
	return issues, nil
}

func (r *MemoryIssueRepo) GetByID(ctx context.Context, issueID string) (*model.Issue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.liveIssue(issueID)
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return cloneIssue(item), nil
}

func (r *MemoryIssueRepo) Update(ctx context.Context, issueID string, update model.IssueUpdate, mtime time.Time) (int64, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.liveIssue(issueID)
	if !ok {
		return 0, 0, appErr.ErrNotFound
	}
	if update.IssueTitle != nil {
		item.IssueTitle = *update.IssueTitle
	}
	if update.Status != nil {
		item.Status = *update.Status
	}
	if update.Description != nil {
		item.Description = *update.Description
	}
	if update.Assignee != nil {
		item.Assignee = *update.Assignee
	}
	if update.Attachments != nil {
		item.Attachments = append([]string{}, (*update.Attachments)...)
	}
	item.ModifiedOn = mtime
	return 1, 1, nil
}

func (r *MemoryIssueRepo) SoftDelete(ctx context.Context, issueID string, mtime time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.liveIssue(issueID)
	if !ok {
		return 0, appErr.ErrNotFound
	}
	item.Deleted = true
	item.ModifiedOn = mtime
	return 1, nil
}

func (r *MemoryIssueRepo) AddWatcher(ctx context.Context, issueID, userID string) (int64, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.liveIssue(issueID)
	if !ok {
		return 0, 0, appErr.ErrNotFound
	}
	for _, watcher := range item.Watchers {
		if watcher == userID {
			return 1, 0, nil
		}
	}
	item.Watchers = append(item.Watchers, userID)
	return 1, 1, nil
}

func (r *MemoryIssueRepo) AppendComment(ctx context.Context, issueID, commentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.liveIssue(issueID)
	if !ok {
		return appErr.ErrNotFound
	}
	item.Comments = append(item.Comments, commentID)
	return nil
}

func (s *MemoryStore) liveIssue(issueID string) (*model.Issue, bool) {
	item, ok := s.issues[issueID]
	if !ok || item.Deleted {
		return nil, false
	}
	return item, true
}

func cloneIssue(issue *model.Issue) *model.Issue {
	clone := *issue
	clone.Attachments = append([]string{}, issue.Attachments...)
	clone.Comments = append([]string{}, issue.Comments...)
	clone.Watchers = append([]string{}, issue.Watchers...)
	return &clone
}

type MemoryCommentRepo struct {
	s *MemoryStore
}

func (r *MemoryCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, item := range r.s.comments {
		if item.CommentID == comment.CommentID {
			return appErr.ErrConflict
		}
	}
	clone := *comment
	r.s.comments = append(r.s.comments, &clone)
	return nil
}

func (r *MemoryCommentRepo) ListByIssue(ctx context.Context, issueID string) ([]*model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	comments := make([]*model.Comment, 0)
	for _, item := range r.s.comments {
		if item.IssueID == issueID {
			clone := *item
			comments = append(comments, &clone)
		}
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CommentedOn.Before(comments[j].CommentedOn)
	})
	return comments, nil
}
