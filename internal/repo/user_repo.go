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

type UserRepo struct {
	coll *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{coll: db.Collection(usersCollection)}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email, "deleted": false})
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"userId": userID, "deleted": false})
}

func (r *UserRepo) List(ctx context.Context) ([]*model.User, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"deleted": false}, options.Find().SetSort(bson.D{{Key: "createdOn", Value: 1}}))
	if err != nil {
		return nil, err
	}
	users := make([]*model.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, userID string, update model.UserProfileUpdate, mtime time.Time) (int64, int64, error) {
	set := bson.M{"modifiedOn": mtime}
	if update.FirstName != nil {
		set["firstName"] = *update.FirstName
	}
	if update.LastName != nil {
		set["lastName"] = *update.LastName
	}
	if update.MobileNumber != nil {
		set["mobileNumber"] = *update.MobileNumber
	}
	if update.Country != nil {
		set["country"] = *update.Country
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"userId": userID, "deleted": false}, bson.M{"$set": set})
	if err != nil {
		return 0, 0, err
	}
	if result.MatchedCount == 0 {
		return 0, 0, appErr.ErrNotFound
	}
	return result.MatchedCount, result.ModifiedCount, nil
}

// UpdatePassword only applies while the stored token version still equals
// expectedVersion, and bumps it in the same write.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID string, expectedVersion int64, passwordHash string, mtime time.Time) error {
	filter := bson.M{"userId": userID, "tokenVersion": expectedVersion, "deleted": false}
	update := bson.M{
		"$set": bson.M{"password": passwordHash, "modifiedOn": mtime},
		"$inc": bson.M{"tokenVersion": 1},
	}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// MarkVerified reports whether this call flipped the status. A second call for
// an already verified user is a no-op.
func (r *UserRepo) MarkVerified(ctx context.Context, userID, email string, mtime time.Time) (bool, error) {
	filter := bson.M{"userId": userID, "email": email, "deleted": false}
	pending := bson.M{"userId": userID, "email": email, "deleted": false, "userVerificationStatus": false}
	result, err := r.coll.UpdateOne(ctx, pending, bson.M{"$set": bson.M{"userVerificationStatus": true, "modifiedOn": mtime}})
	if err != nil {
		return false, err
	}
	if result.MatchedCount > 0 {
		return true, nil
	}
	if _, err := r.findOne(ctx, filter); err != nil {
		return false, err
	}
	return false, nil
}

func (r *UserRepo) SoftDelete(ctx context.Context, userID string, mtime time.Time) (int64, error) {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": userID, "deleted": false},
		bson.M{"$set": bson.M{"deleted": true, "modifiedOn": mtime}, "$inc": bson.M{"tokenVersion": 1}},
	)
	if err != nil {
		return 0, err
	}
	if result.MatchedCount == 0 {
		return 0, appErr.ErrNotFound
	}
	return result.MatchedCount, nil
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
