package repository

import (
	"context"
	"fmt"

	"vitrii/pkg/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PositionCounterRepository hands out waitlist positions per event. Each event
// owns a single counter document; $inc with upsert makes the allocation atomic
// so concurrent waitlist joins never share a position.
type PositionCounterRepository interface {
	Next(ctx context.Context, eventID string) (int, error)
}

type mongoPositionCounterRepository struct {
	collection *mongo.Collection
}

func NewPositionCounterRepository(cfg *config.Config) PositionCounterRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPositionCounterRepository{
		collection: db.Collection("Reserva_counters"),
	}
}

func (r *mongoPositionCounterRepository) Next(ctx context.Context, eventID string) (int, error) {
	var counter struct {
		Seq int `bson:"seq"`
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": eventID},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate waitlist position: %w", err)
	}

	return counter.Seq, nil
}
