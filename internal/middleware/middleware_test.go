package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/issuetracker/internal/limiter"
	"github.com/xxxsen/issuetracker/internal/pkg/jwt"
	"github.com/xxxsen/issuetracker/internal/pkg/response"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newIssuer(t *testing.T, clk *testClock) *jwt.Issuer {
	t.Helper()
	tokens, err := jwt.NewIssuer(jwt.Config{
		Secret:     []byte("gate-secret"),
		Issuer:     "issuetracker",
		SessionTTL: time.Hour,
		ResetTTL:   time.Minute,
		VerifyTTL:  time.Hour,
		Now:        clk.Now,
	})
	require.NoError(t, err)
	return tokens
}

func gatedEngine(tokens *jwt.Issuer, hits *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/private", Auth(tokens), func(c *gin.Context) {
		*hits++
		claims, ok := ClaimsFrom(c)
		if !ok {
			response.Error(c, http.StatusInternalServerError, "no claims")
			return
		}
		response.Success(c, "ok", gin.H{"userId": claims.UserID, "uid": c.GetString(ContextUserIDKey)})
	})
	return engine
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestAuthAcceptsValidToken(t *testing.T) {
	clk := &testClock{now: time.Now()}
	tokens := newIssuer(t, clk)
	token, _, err := tokens.IssueSession(jwt.Identity{UserID: "u-1", FirstName: "Ada", Email: "a@x.com"})
	require.NoError(t, err)
	hits := 0
	engine := gatedEngine(tokens, &hits)

	requests := []*http.Request{
		httptest.NewRequest(http.MethodGet, "/private", nil),
		httptest.NewRequest(http.MethodGet, "/private", nil),
		httptest.NewRequest(http.MethodGet, "/private?authToken="+token, nil),
	}
	requests[0].Header.Set("Authorization", "Bearer "+token)
	requests[1].Header.Set("authToken", token)
	for _, req := range requests {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		env := decode(t, rec)
		require.False(t, env.Error)
		data := env.Data.(map[string]interface{})
		require.Equal(t, "u-1", data["userId"])
		require.Equal(t, "u-1", data["uid"])
	}
	require.Equal(t, 3, hits)
}

func TestAuthRejects(t *testing.T) {
	clk := &testClock{now: time.Now()}
	tokens := newIssuer(t, clk)
	session, _, err := tokens.IssueSession(jwt.Identity{UserID: "u-1"})
	require.NoError(t, err)
	reset, err := tokens.IssueReset("u-1", 0)
	require.NoError(t, err)
	tampered := session[:len(session)-5] + "AAAAA"

	cases := []struct {
		name    string
		header  string
		message string
	}{
		{"missing", "", "missing authorization token"},
		{"wrong scheme", "Basic " + session, "missing authorization token"},
		{"garbage", "Bearer not-a-token", "invalid or expired token"},
		{"tampered", "Bearer " + tampered, "invalid or expired token"},
		{"reset token", "Bearer " + reset, "invalid or expired token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hits := 0
			engine := gatedEngine(tokens, &hits)
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			env := decode(t, rec)
			require.True(t, env.Error)
			require.Equal(t, http.StatusUnauthorized, env.Status)
			require.Equal(t, tc.message, env.Message)
			require.Nil(t, env.Data)
			require.Equal(t, 0, hits)
		})
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	clk := &testClock{now: time.Now()}
	tokens := newIssuer(t, clk)
	token, _, err := tokens.IssueSession(jwt.Identity{UserID: "u-1"})
	require.NoError(t, err)
	hits := 0
	engine := gatedEngine(tokens, &hits)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	clk.now = clk.now.Add(2 * time.Hour)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, 1, hits)
}

func TestRateLimitBlocksWithinWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/login", RateLimit(limiter.NewMemory(16, time.Minute)), func(c *gin.Context) {
		response.Success(c, "ok", nil)
	})
	engine.POST("/other", RateLimit(limiter.NewMemory(16, time.Minute)), func(c *gin.Context) {
		response.Success(c, "ok", nil)
	})

	do := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		return rec
	}
	require.Equal(t, http.StatusOK, do("/login").Code)
	rec := do("/login")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, http.StatusTooManyRequests, decode(t, rec).Status)
	require.Equal(t, http.StatusOK, do("/other").Code)
}

func TestRequestIDAndCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID(), CORS([]string{"https://app.test"}))
	engine.GET("/ping", func(c *gin.Context) {
		response.Success(c, c.GetString(ContextRequestIDKey), nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	req.Header.Set("Origin", "https://app.test")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	require.Equal(t, "https://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "req-42", decode(t, rec).Message)

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
