package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/issuetracker/internal/pkg/response"
	"github.com/xxxsen/issuetracker/internal/service"
)

type CommentHandler struct {
	comments *service.CommentService
}

func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type addCommentRequest struct {
	IssueID string `json:"issueId" form:"issueId"`
	Comment string `json:"comment" form:"comment"`
}

func (h *CommentHandler) Add(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	comment, err := h.comments.Add(c.Request.Context(), getActor(c), req.IssueID, req.Comment)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "Comment added", comment)
}

func (h *CommentHandler) ListByIssue(c *gin.Context) {
	comments, err := h.comments.ListByIssue(c.Request.Context(), c.Param("issueId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "Comment details found", comments)
}
