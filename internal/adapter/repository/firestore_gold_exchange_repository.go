package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/domain/repository"
	"goldmarket/pkg/errors"
	"goldmarket/pkg/logger"
)

const goldExchangesCollection = "goldExchanges"

type firestoreGoldExchangeRepository struct {
	client *firestore.Client
}

func NewFirestoreGoldExchangeRepository(client *firestore.Client) repository.GoldExchangeRepository {
	return &firestoreGoldExchangeRepository{
		client: client,
	}
}

func (r *firestoreGoldExchangeRepository) Create(ctx context.Context, exchange *entity.GoldExchange) error {
	ref := r.client.Collection(goldExchangesCollection).NewDoc()

	now := time.Now()
	exchange.CreatedAt = now
	exchange.UpdatedAt = now

	if _, err := ref.Create(ctx, exchange); err != nil {
		return errors.Internal("Failed to create gold exchange request", err)
	}
	exchange.ID = ref.ID

	return nil
}

func (r *firestoreGoldExchangeRepository) GetByID(ctx context.Context, id string) (*entity.GoldExchange, error) {
	doc, err := r.client.Collection(goldExchangesCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Gold exchange request", err)
		}
		return nil, errors.Internal("Failed to get gold exchange request", err)
	}
	return decodeGoldExchange(doc)
}

func (r *firestoreGoldExchangeRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.GoldExchange, error) {
	query := r.client.Collection(goldExchangesCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc)
	return r.list(ctx, query, limit)
}

func (r *firestoreGoldExchangeRepository) ListAll(ctx context.Context, status entity.ExchangeStatus, limit int) ([]*entity.GoldExchange, error) {
	query := r.client.Collection(goldExchangesCollection).Query
	if status != "" {
		query = query.Where("status", "==", string(status))
	}
	return r.list(ctx, query.OrderBy("createdAt", firestore.Desc), limit)
}

func (r *firestoreGoldExchangeRepository) list(ctx context.Context, query firestore.Query, limit int) ([]*entity.GoldExchange, error) {
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var exchanges []*entity.GoldExchange
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to fetch gold exchange requests", err)
		}

		exchange, err := decodeGoldExchange(doc)
		if err != nil {
			logger.Warn("Skipping malformed gold exchange %s: %v", doc.Ref.ID, err)
			continue
		}
		exchanges = append(exchanges, exchange)
	}

	return exchanges, nil
}

func (r *firestoreGoldExchangeRepository) UpdateStatus(ctx context.Context, id string, next entity.ExchangeStatus, check func(current entity.ExchangeStatus) error) (*entity.GoldExchange, error) {
	ref := r.client.Collection(goldExchangesCollection).Doc(id)

	var updated *entity.GoldExchange
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Gold exchange request", err)
			}
			return err
		}

		current, err := decodeGoldExchange(doc)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(current.Status); err != nil {
				return err
			}
		}

		now := time.Now()
		current.Status = next
		current.UpdatedAt = now
		updated = current

		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: string(next)},
			{Path: "updatedAt", Value: now},
		})
	})
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		return nil, errors.Internal("Failed to update gold exchange status", err)
	}

	return updated, nil
}

func decodeGoldExchange(doc *firestore.DocumentSnapshot) (*entity.GoldExchange, error) {
	var exchange entity.GoldExchange
	if err := doc.DataTo(&exchange); err != nil {
		return nil, errors.Internal("Failed to parse gold exchange data", err)
	}
	exchange.ID = doc.Ref.ID
	return &exchange, nil
}
