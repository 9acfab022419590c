package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xxxsen/issuetracker/internal/model"
	appErr "github.com/xxxsen/issuetracker/internal/pkg/errors"
)

type IssueRepo struct {
	coll *mongo.Collection
}

func NewIssueRepo(db *mongo.Database) *IssueRepo {
	return &IssueRepo{coll: db.Collection(issuesCollection)}
}

func (r *IssueRepo) Create(ctx context.Context, issue *model.Issue) error {
	if _, err := r.coll.InsertOne(ctx, issue); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *IssueRepo) List(ctx context.Context) ([]*model.Issue, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"deleted": false}, options.Find().SetSort(bson.D{{Key: "reportedOn", Value: -1}}))
	if err != nil {
		return nil, err
	}
	issues := make([]*model.Issue, 0)
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (r *IssueRepo) GetByID(ctx context.Context, issueID string) (*model.Issue, error) {
	var issue model.Issue
	if err := r.coll.FindOne(ctx, bson.M{"issueId": issueID, "deleted": false}).Decode(&issue); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &issue, nil
}

func (r *IssueRepo) Update(ctx context.Context, issueID string, update model.IssueUpdate, mtime time.Time) (int64, int64, error) {
	set := bson.M{"modifiedOn": mtime}
	if update.IssueTitle != nil {
		set["issueTitle"] = *update.IssueTitle
	}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Assignee != nil {
		set["assignee"] = *update.Assignee
	}
	if update.Attachments != nil {
		set["attachments"] = *update.Attachments
	}
	return r.updateOne(ctx, issueID, bson.M{"$set": set})
}

func (r *IssueRepo) SoftDelete(ctx context.Context, issueID string, mtime time.Time) (int64, error) {
	matched, _, err := r.updateOne(ctx, issueID, bson.M{"$set": bson.M{"deleted": true, "modifiedOn": mtime}})
	return matched, err
}

func (r *IssueRepo) AddWatcher(ctx context.Context, issueID, userID string) (int64, int64, error) {
	return r.updateOne(ctx, issueID, bson.M{"$addToSet": bson.M{"watchers": userID}})
}

func (r *IssueRepo) AppendComment(ctx context.Context, issueID, commentID string) error {
	_, _, err := r.updateOne(ctx, issueID, bson.M{"$push": bson.M{"comments": commentID}})
	return err
}

func (r *IssueRepo) updateOne(ctx context.Context, issueID string, update bson.M) (int64, int64, error) {
	result, err := r.coll.UpdateOne(ctx, bson.M{"issueId": issueID, "deleted": false}, update)
	if err != nil {
		return 0, 0, err
	}
	if result.MatchedCount == 0 {
		return 0, 0, appErr.ErrNotFound
	}
	return result.MatchedCount, result.ModifiedCount, nil
}
