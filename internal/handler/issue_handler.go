package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/issuetracker/internal/model"
	"github.com/xxxsen/issuetracker/internal/pkg/response"
	"github.com/xxxsen/issuetracker/internal/service"
)

type IssueHandler struct {
	issues *service.IssueService
}

func NewIssueHandler(issues *service.IssueService) *IssueHandler {
	return &IssueHandler{issues: issues}
}

type registerIssueRequest struct {
	IssueTitle  string   `json:"issueTitle" form:"issueTitle"`
	Status      string   `json:"status" form:"status"`
	Description string   `json:"description" form:"description"`
	Assignee    string   `json:"assignee" form:"assignee"`
	Attachments []string `json:"attachments" form:"attachments"`
}

type editIssueRequest struct {
	IssueTitle  *string   `json:"issueTitle"`
	Status      *string   `json:"status"`
	Description *string   `json:"description"`
	Assignee    *string   `json:"assignee"`
	Attachments *[]string `json:"attachments"`
}

func (h *IssueHandler) Register(c *gin.Context) {
	var req registerIssueRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	issue, err := h.issues.Register(c.Request.Context(), getActor(c), service.IssueInput{
		IssueTitle:  req.IssueTitle,
		Status:      req.Status,
		Description: req.Description,
		Assignee:    req.Assignee,
		Attachments: req.Attachments,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "Issue registered successfully", issue)
}

func (h *IssueHandler) List(c *gin.Context) {
	issues, err := h.issues.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "All Issue Found", issues)
}

func (h *IssueHandler) Get(c *gin.Context) {
	issue, err := h.issues.Get(c.Request.Context(), c.Param("issueId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "Issue details found", issue)
}

// Edit takes JSON only, so an omitted field and an explicit empty list stay
// distinguishable.
func (h *IssueHandler) Edit(c *gin.Context) {
	var req editIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	result, err := h.issues.Edit(c.Request.Context(), c.Param("issueId"), model.IssueUpdate{
		IssueTitle:  req.IssueTitle,
		Status:      req.Status,
		Description: req.Description,
		Assignee:    req.Assignee,
		Attachments: req.Attachments,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "Issue details edited/updated successfully", result)
}

func (h *IssueHandler) Delete(c *gin.Context) {
	result, err := h.issues.Delete(c.Request.Context(), getActor(c), c.Param("issueId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "Issue Deleted", result)
}

func (h *IssueHandler) Watch(c *gin.Context) {
	result, err := h.issues.Watch(c.Request.Context(), getActor(c), c.Param("issueId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "Issue watched", result)
}
