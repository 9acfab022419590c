package model

import "time"

const (
	IssueStatusBacklog    = "backlog"
	IssueStatusInProgress = "in-progress"
	IssueStatusInTest     = "in-test"
	IssueStatusDone       = "done"
)

func ValidIssueStatus(status string) bool {
	switch status {
	case IssueStatusBacklog, IssueStatusInProgress, IssueStatusInTest, IssueStatusDone:
		return true
	}
	return false
}

type Issue struct {
	IssueID      string    `json:"issueId" bson:"issueId"`
	IssueTitle   string    `json:"issueTitle" bson:"issueTitle"`
	ReporterID   string    `json:"reporterId" bson:"reporterId"`
	ReporterName string    `json:"reporterName" bson:"reporterName"`
	Status       string    `json:"status" bson:"status"`
	Description  string    `json:"description" bson:"description"`
	Attachments  []string  `json:"attachments" bson:"attachments"`
	Assignee     string    `json:"assignee" bson:"assignee"`
	Comments     []string  `json:"comments" bson:"comments"`
	Watchers     []string  `json:"watchers" bson:"watchers"`
	Deleted      bool      `json:"-" bson:"deleted"`
	ReportedOn   time.Time `json:"reportedOn" bson:"reportedOn"`
	ModifiedOn   time.Time `json:"modifiedOn" bson:"modifiedOn"`
}

type IssueUpdate struct {
	IssueTitle  *string
	Status      *string
	Description *string
	Assignee    *string
	Attachments *[]string
}

func (u IssueUpdate) Empty() bool {
	return u.IssueTitle == nil && u.Status == nil && u.Description == nil && u.Assignee == nil && u.Attachments == nil
}
