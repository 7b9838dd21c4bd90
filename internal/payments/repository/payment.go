package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	paymentserrors "vitrii/internal/payments/errors"
	"vitrii/pkg/config"
	"vitrii/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Pagamentos"
)

type mongoPaymentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id string) (*model.Payment, error)
	FindByAd(ctx context.Context, adID string) ([]*model.Payment, error)
	UpdateStatus(ctx context.Context, id string, status string, paidAt *time.Time) error
}

func NewMongoPaymentRepository(cfg *config.Config) PaymentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPaymentRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoPaymentRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoPaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	payment.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.collection.InsertOne(ctx, payment); err != nil {
		return fmt.Errorf("failed to create pagamento: %w", err)
	}

	return nil
}

func (r *mongoPaymentRepository) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var payment model.Payment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&payment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, paymentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find pagamento: %w", err)
	}

	return &payment, nil
}

func (r *mongoPaymentRepository) FindByAd(ctx context.Context, adID string) ([]*model.Payment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "criado_em", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"anuncio_id": adID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pagamentos: %w", err)
	}
	defer cursor.Close(ctx)

	var payments []*model.Payment
	if err = cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("failed to decode pagamentos: %w", err)
	}

	return payments, nil
}

func (r *mongoPaymentRepository) UpdateStatus(ctx context.Context, id string, status string, paidAt *time.Time) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set := bson.M{"status": status}
	if paidAt != nil {
		set["pago_em"] = paidAt
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update pagamento status: %w", err)
	}

	if result.MatchedCount == 0 {
		return paymentserrors.ErrNotFound
	}

	return nil
}
