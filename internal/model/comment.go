package model

import "time"

type Comment struct {
	CommentID   string    `json:"commentId" bson:"commentId"`
	IssueID     string    `json:"issueId" bson:"issueId"`
	UserID      string    `json:"userId" bson:"userId"`
	UserName    string    `json:"userName" bson:"userName"`
	Comment     string    `json:"comment" bson:"comment"`
	CommentedOn time.Time `json:"commentedOn" bson:"commentedOn"`
}
