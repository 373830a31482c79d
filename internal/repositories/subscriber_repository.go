package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/umit144/subscriber-provisioner/internal/models"
)

// SubscriberRepository reads and writes Open5GS subscriber documents.
type SubscriberRepository struct {
	coll *mongo.Collection
}

func NewSubscriberRepository(coll *mongo.Collection) *SubscriberRepository {
	return &SubscriberRepository{coll: coll}
}

func byIMSI(imsi string) bson.D {
	return bson.D{{Key: "imsi", Value: imsi}}
}

// EnsureUniqueIMSI adds a unique index on imsi. Open5GS does not create one,
// so this is opt-in.
func (r *SubscriberRepository) EnsureUniqueIMSI(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "imsi", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("imsi_unique"),
	})
	return mongoError("create imsi index", err)
}

func (r *SubscriberRepository) RemoveByIMSI(ctx context.Context, imsi string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, byIMSI(imsi))
	if err != nil {
		return 0, mongoError("delete failed", err)
	}
	return res.DeletedCount, nil
}

func (r *SubscriberRepository) Insert(ctx context.Context, sub models.Subscriber) (string, error) {
	res, err := r.coll.InsertOne(ctx, sub)
	if err != nil {
		return "", mongoError("insert failed", err)
	}
	return idString(res.InsertedID), nil
}

// Upsert replaces the oldest document with the same imsi, creating it when
// absent, and then deletes any other document carrying that imsi. The
// returned id is empty when an existing document was replaced.
func (r *SubscriberRepository) Upsert(ctx context.Context, sub models.Subscriber) (string, error) {
	sub.ID = primitive.NilObjectID

	var existing struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	filter := byIMSI(sub.IMSI)
	lookup := options.FindOne().
		SetProjection(bson.D{{Key: "_id", Value: 1}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	err := r.coll.FindOne(ctx, filter, lookup).Decode(&existing)
	switch {
	case err == nil:
		filter = bson.D{{Key: "_id", Value: existing.ID}}
	case errors.Is(err, mongo.ErrNoDocuments):
	default:
		return "", mongoError("upsert lookup failed", err)
	}

	res, err := r.coll.ReplaceOne(ctx, filter, sub, options.Replace().SetUpsert(true))
	if err != nil {
		return "", mongoError("upsert failed", err)
	}

	kept := existing.ID
	if id, ok := res.UpsertedID.(primitive.ObjectID); ok {
		kept = id
	}
	if !kept.IsZero() {
		extra := bson.D{
			{Key: "imsi", Value: sub.IMSI},
			{Key: "_id", Value: bson.D{{Key: "$ne", Value: kept}}},
		}
		if _, err := r.coll.DeleteMany(ctx, extra); err != nil {
			return "", mongoError("upsert cleanup failed", err)
		}
	}
	return idString(res.UpsertedID), nil
}

func (r *SubscriberRepository) CountByIMSI(ctx context.Context, imsi string) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, byIMSI(imsi))
	if err != nil {
		return 0, mongoError("count failed", err)
	}
	return n, nil
}

func (r *SubscriberRepository) FindByIMSI(ctx context.Context, imsi string) (*models.Subscriber, error) {
	res := r.coll.FindOne(ctx, byIMSI(imsi))
	if err := res.Err(); err != nil {
		return nil, mongoError("find failed", err)
	}
	var sub models.Subscriber
	if err := res.Decode(&sub); err != nil {
		return nil, fmt.Errorf("decode failed: %w: %v", models.ErrCorruptRecord, err)
	}
	return &sub, nil
}

func idString(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return ""
	}
}
