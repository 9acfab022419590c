package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/issuetracker/internal/config"
	"github.com/xxxsen/issuetracker/internal/model"
	appErr "github.com/xxxsen/issuetracker/internal/pkg/errors"
)

type userStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, userID string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	UpdateProfile(ctx context.Context, userID string, update model.UserProfileUpdate, mtime time.Time) (int64, int64, error)
	UpdatePassword(ctx context.Context, userID string, expectedVersion int64, passwordHash string, mtime time.Time) error
	MarkVerified(ctx context.Context, userID, email string, mtime time.Time) (bool, error)
	SoftDelete(ctx context.Context, userID string, mtime time.Time) (int64, error)
}

type issueStore interface {
	Create(ctx context.Context, issue *model.Issue) error
	List(ctx context.Context) ([]*model.Issue, error)
	GetByID(ctx context.Context, issueID string) (*model.Issue, error)
	Update(ctx context.Context, issueID string, update model.IssueUpdate, mtime time.Time) (int64, int64, error)
	SoftDelete(ctx context.Context, issueID string, mtime time.Time) (int64, error)
	AddWatcher(ctx context.Context, issueID, userID string) (int64, int64, error)
	AppendComment(ctx context.Context, issueID, commentID string) error
}

type commentStore interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByIssue(ctx context.Context, issueID string) ([]*model.Comment, error)
}

func newUser(email string) *model.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.User{
		UserID:       uuid.NewString(),
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        email,
		PasswordHash: "hash",
		CreatedOn:    now,
		ModifiedOn:   now,
	}
}

func testUserStore(t *testing.T, users userStore) {
	ctx := context.Background()
	email := uuid.NewString() + "@x.com"
	user := newUser(email)
	require.NoError(t, users.Create(ctx, user))
	require.ErrorIs(t, users.Create(ctx, newUser(email)), appErr.ErrConflict)

	got, err := users.GetByEmail(ctx, email)
	require.NoError(t, err)
	require.Equal(t, user.UserID, got.UserID)
	require.False(t, got.UserVerificationStatus)

	name := "Grace"
	_, _, err = users.UpdateProfile(ctx, user.UserID, model.UserProfileUpdate{FirstName: &name}, time.Now())
	require.NoError(t, err)
	got, err = users.GetByID(ctx, user.UserID)
	require.NoError(t, err)
	require.Equal(t, "Grace", got.FirstName)
	require.Equal(t, "Lovelace", got.LastName)

	require.NoError(t, users.UpdatePassword(ctx, user.UserID, 0, "hash2", time.Now()))
	require.ErrorIs(t, users.UpdatePassword(ctx, user.UserID, 0, "hash3", time.Now()), appErr.ErrNotFound)
	got, err = users.GetByID(ctx, user.UserID)
	require.NoError(t, err)
	require.Equal(t, "hash2", got.PasswordHash)
	require.EqualValues(t, 1, got.TokenVersion)

	changed, err := users.MarkVerified(ctx, user.UserID, email, time.Now())
	require.NoError(t, err)
	require.True(t, changed)
	changed, err = users.MarkVerified(ctx, user.UserID, email, time.Now())
	require.NoError(t, err)
	require.False(t, changed)
	_, err = users.MarkVerified(ctx, user.UserID, "other@x.com", time.Now())
	require.ErrorIs(t, err, appErr.ErrNotFound)

	matched, err := users.SoftDelete(ctx, user.UserID, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 1, matched)
	_, err = users.GetByID(ctx, user.UserID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = users.GetByEmail(ctx, email)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = users.SoftDelete(ctx, user.UserID, time.Now())
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func testIssueStores(t *testing.T, issues issueStore, comments commentStore) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	issue := &model.Issue{
		IssueID:     uuid.NewString(),
		IssueTitle:  "Broken build",
		ReporterID:  "u1",
		Status:      model.IssueStatusBacklog,
		Attachments: []string{},
		Comments:    []string{},
		Watchers:    []string{},
		ReportedOn:  now,
		ModifiedOn:  now,
	}
	require.NoError(t, issues.Create(ctx, issue))

	status := model.IssueStatusInProgress
	_, _, err := issues.Update(ctx, issue.IssueID, model.IssueUpdate{Status: &status}, now)
	require.NoError(t, err)

	_, modified, err := issues.AddWatcher(ctx, issue.IssueID, "u2")
	require.NoError(t, err)
	require.EqualValues(t, 1, modified)
	_, modified, err = issues.AddWatcher(ctx, issue.IssueID, "u2")
	require.NoError(t, err)
	require.EqualValues(t, 0, modified)

	comment := &model.Comment{CommentID: uuid.NewString(), IssueID: issue.IssueID, UserID: "u2", Comment: "on it", CommentedOn: now}
	require.NoError(t, comments.Create(ctx, comment))
	require.NoError(t, issues.AppendComment(ctx, issue.IssueID, comment.CommentID))

	got, err := issues.GetByID(ctx, issue.IssueID)
	require.NoError(t, err)
	require.Equal(t, model.IssueStatusInProgress, got.Status)
	require.Equal(t, []string{"u2"}, got.Watchers)
	require.Equal(t, []string{comment.CommentID}, got.Comments)

	listed, err := comments.ListByIssue(ctx, issue.IssueID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "on it", listed[0].Comment)

	_, err = issues.SoftDelete(ctx, issue.IssueID, now)
	require.NoError(t, err)
	_, err = issues.GetByID(ctx, issue.IssueID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.ErrorIs(t, issues.AppendComment(ctx, issue.IssueID, "x"), appErr.ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	testUserStore(t, store.Users())
	testIssueStores(t, store.Issues(), store.Comments())
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set, skipping mongo test")
	}
	ctx := context.Background()
	client, err := Open(ctx, config.DatabaseConfig{
		URI:                   uri,
		ConnectTimeoutSeconds: 5,
		RetryAttempts:         1,
		RetryIntervalSeconds:  1,
		MaxPoolSize:           5,
	})
	require.NoError(t, err)
	db := client.Database("issuetracker_test_" + uuid.NewString()[:8])
	defer func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	}()
	require.NoError(t, EnsureIndexes(ctx, db))
	require.NoError(t, Healthcheck(client)(ctx))

	testUserStore(t, NewUserRepo(db))
	testIssueStores(t, NewIssueRepo(db), NewCommentRepo(db))
}
