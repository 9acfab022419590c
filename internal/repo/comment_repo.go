package repo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xxxsen/issuetracker/internal/model"
	appErr "github.com/xxxsen/issuetracker/internal/pkg/errors"
)

type CommentRepo struct {
	coll *mongo.Collection
}

func NewCommentRepo(db *mongo.Database) *CommentRepo {
	return &CommentRepo{coll: db.Collection(commentsCollection)}
}

func (r *CommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	if _, err := r.coll.InsertOne(ctx, comment); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *CommentRepo) ListByIssue(ctx context.Context, issueID string) ([]*model.Comment, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"issueId": issueID}, options.Find().SetSort(bson.D{{Key: "commentedOn", Value: 1}}))
	if err != nil {
		return nil, err
	}
	comments := make([]*model.Comment, 0)
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
