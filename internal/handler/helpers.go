package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/issuetracker/internal/middleware"
	appErr "github.com/xxxsen/issuetracker/internal/pkg/errors"
	"github.com/xxxsen/issuetracker/internal/pkg/response"
	"github.com/xxxsen/issuetracker/internal/service"
)

func getUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserIDKey)
}

func getActor(c *gin.Context) service.Actor {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return service.Actor{UserID: getUserID(c)}
	}
	return service.Actor{UserID: claims.UserID, Name: claims.FullName()}
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, appErr.ErrInvalid):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, appErr.ErrAuthFailed):
		return http.StatusBadRequest, "Login Failed"
	case errors.Is(err, appErr.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, appErr.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, appErr.ErrConflict):
		return http.StatusForbidden, "conflict"
	case errors.Is(err, appErr.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, appErr.ErrTooMany):
		return http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests)
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// handleError is the single place a service error turns into a response.
// Internal failures never leak their cause to the client.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, message := statusOf(err)
	if status != http.StatusInternalServerError {
		if msg, ok := appErr.Message(err); ok {
			message = msg
		}
	}
	logger := logutil.GetLogger(c.Request.Context()).With(
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Int("status", status),
	)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	} else {
		logger.Info("request rejected", zap.String("reason", err.Error()))
	}
	response.Error(c, status, message)
}

func badRequest(c *gin.Context, message string) {
	handleError(c, appErr.WithMessage(appErr.ErrInvalid, message))
}
