package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	waitlisterrors "vitrii/internal/waitlist/errors"
	"vitrii/pkg/config"
	mongotx "vitrii/pkg/db/mongo"
	"vitrii/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Filas_espera"
)

type mongoWaitlistRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type WaitlistRepository interface {
	Create(ctx context.Context, request *model.WaitlistRequest) error
	FindByID(ctx context.Context, id string) (*model.WaitlistRequest, error)
	FindByAdvertiser(ctx context.Context, advertiserID string, status string) ([]*model.WaitlistRequest, error)
	MarkApproved(ctx context.Context, id string, eventID string) error
	MarkRejected(ctx context.Context, id string, reason string, suggestedDate string, suggestedTime string) error
	MarkCanceled(ctx context.Context, id string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoWaitlistRepository(cfg *config.Config) WaitlistRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoWaitlistRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoWaitlistRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoWaitlistRepository) Create(ctx context.Context, request *model.WaitlistRequest) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	request.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to create fila de espera: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		request.ID = oid.Hex()
	}
	return nil
}

func (r *mongoWaitlistRepository) FindByID(ctx context.Context, id string) (*model.WaitlistRequest, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", waitlisterrors.ErrInvalidID, id)
	}

	var request model.WaitlistRequest
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&request)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, waitlisterrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find fila de espera: %w", err)
	}

	return &request, nil
}

func (r *mongoWaitlistRepository) FindByAdvertiser(ctx context.Context, advertiserID string, status string) ([]*model.WaitlistRequest, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"anunciante_id": advertiserID}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "criado_em", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find filas de espera: %w", err)
	}
	defer cursor.Close(ctx)

	var requests []*model.WaitlistRequest
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode filas de espera: %w", err)
	}

	return requests, nil
}

func (r *mongoWaitlistRepository) MarkApproved(ctx context.Context, id string, eventID string) error {
	return r.updateFields(ctx, id, bson.M{
		"status":    model.FilaAprovada,
		"evento_id": eventID,
	})
}

func (r *mongoWaitlistRepository) MarkRejected(ctx context.Context, id string, reason string, suggestedDate string, suggestedTime string) error {
	set := bson.M{
		"status":          model.FilaRejeitada,
		"motivo_rejeicao": reason,
	}
	if suggestedDate != "" {
		set["data_sugestao"] = suggestedDate
	}
	if suggestedTime != "" {
		set["hora_sugestao"] = suggestedTime
	}
	return r.updateFields(ctx, id, set)
}

func (r *mongoWaitlistRepository) MarkCanceled(ctx context.Context, id string) error {
	return r.updateFields(ctx, id, bson.M{"status": model.FilaCancelada})
}

func (r *mongoWaitlistRepository) updateFields(ctx context.Context, id string, set bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", waitlisterrors.ErrInvalidID, id)
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update fila de espera: %w", err)
	}

	if result.MatchedCount == 0 {
		return waitlisterrors.ErrNotFound
	}

	return nil
}

func (r *mongoWaitlistRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
