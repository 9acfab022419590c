package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/issuetracker/internal/config"
	"github.com/xxxsen/issuetracker/internal/filestore"
	"github.com/xxxsen/issuetracker/internal/handler"
	"github.com/xxxsen/issuetracker/internal/limiter"
	"github.com/xxxsen/issuetracker/internal/middleware"
	"github.com/xxxsen/issuetracker/internal/pkg/jwt"
	"github.com/xxxsen/issuetracker/internal/repo"
	"github.com/xxxsen/issuetracker/internal/service"
)

type mailbox struct {
	mu    sync.Mutex
	mails map[string][]string
}

func (m *mailbox) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mails[to] = append(m.mails[to], body)
	return nil
}

// lastToken pulls the token query parameter out of the newest mail to addr.
func (m *mailbox) lastToken(t *testing.T, addr string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	inbox := m.mails[addr]
	require.NotEmpty(t, inbox)
	body := inbox[len(inbox)-1]
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

type testServer struct {
	handler http.Handler
	mail    *mailbox
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repo.NewMemoryStore()
	tokens, err := jwt.NewIssuer(jwt.Config{
		Secret:     []byte("test-secret"),
		Issuer:     "issuetracker",
		SessionTTL: time.Hour,
		ResetTTL:   15 * time.Minute,
		VerifyTTL:  48 * time.Hour,
	})
	require.NoError(t, err)
	mail := &mailbox{mails: map[string][]string{}}
	files, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	authService := service.NewAuthService(store.Users(), tokens, mail, limiter.NewMemory(64, time.Minute), "http://tracker.test")
	deps := handler.RouterDeps{
		Users:    handler.NewUserHandler(authService, service.NewUserService(store.Users())),
		Issues:   handler.NewIssueHandler(service.NewIssueService(store.Issues())),
		Comments: handler.NewCommentHandler(service.NewCommentService(store.Comments(), store.Issues())),
		Files:    handler.NewFileHandler(files, "http://tracker.test", 1024*1024),
		Health:   handler.NewHealthHandler(nil),
		Tokens:   tokens,
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return &testServer{handler: engine, mail: mail}
}

type envelope struct {
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	Status  int             `json:"status"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		require.Equal(t, rec.Code, env.Status)
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

type loginData struct {
	AuthToken   string `json:"authToken"`
	UserDetails struct {
		UserID                 string `json:"userId"`
		Email                  string `json:"email"`
		UserVerificationStatus bool   `json:"userVerificationStatus"`
	} `json:"userDetails"`
}

func (s *testServer) signupAndLogin(t *testing.T, email string) loginData {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/v1/users/signup", "", map[string]string{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     email,
		"password":  "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	rec, env = s.do(t, http.MethodPost, "/api/v1/users/login", "", map[string]string{
		"email":    email,
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	var data loginData
	decodeData(t, env, &data)
	require.NotEmpty(t, data.AuthToken)
	return data
}

