package service

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/issuetracker/internal/limiter"
	"github.com/xxxsen/issuetracker/internal/repo"
	"github.com/xxxsen/issuetracker/internal/pkg/jwt"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

type captureSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (c *captureSender) Send(ctx context.Context, to, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (c *captureSender) last(t *testing.T) sentMail {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.sent)
	return c.sent[len(c.sent)-1]
}

func tokenFromBody(t *testing.T, body string) string {
	t.Helper()
	idx := strings.Index(body, "token=")
	require.GreaterOrEqual(t, idx, 0)
	raw := body[idx+len("token="):]
	if end := strings.IndexAny(raw, " \n"); end >= 0 {
		raw = raw[:end]
	}
	token, err := url.QueryUnescape(raw)
	require.NoError(t, err)
	return token
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store    *repo.MemoryStore
	clock    *clock
	tokens   *jwt.Issuer
	sender   *captureSender
	auth     *AuthService
	users    *UserService
	issues   *IssueService
	comments *CommentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := &clock{now: time.Now()}
	tokens, err := jwt.NewIssuer(jwt.Config{
		Secret:     []byte("test-secret"),
		Issuer:     "issuetracker",
		SessionTTL: time.Hour,
		ResetTTL:   15 * time.Minute,
		VerifyTTL:  48 * time.Hour,
		Now:        clk.Now,
	})
	require.NoError(t, err)
	store := repo.NewMemoryStore()
	sender := &captureSender{}
	return &fixture{
		store:    store,
		clock:    clk,
		tokens:   tokens,
		sender:   sender,
		auth:     NewAuthService(store.Users(), tokens, sender, limiter.NewMemory(64, time.Minute), "http://tracker.test"),
		users:    NewUserService(store.Users()),
		issues:   NewIssueService(store.Issues()),
		comments: NewCommentService(store.Comments(), store.Issues()),
	}
}

func (f *fixture) signup(t *testing.T, email string) string {
	t.Helper()
	details, err := f.auth.Signup(context.Background(), SignupInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Password:  "correct-horse",
	})
	require.NoError(t, err)
	return details.UserID
}
