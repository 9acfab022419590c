package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/issuetracker/internal/pkg/response"
)

type HealthHandler struct {
	check func(ctx context.Context) error
}

// NewHealthHandler takes the store probe; nil reports healthy unconditionally.
func NewHealthHandler(check func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{check: check}
}

func (h *HealthHandler) Check(c *gin.Context) {
	if h.check != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.check(ctx); err != nil {
			handleError(c, err)
			return
		}
	}
	response.Success(c, http.StatusText(http.StatusOK), nil)
}
