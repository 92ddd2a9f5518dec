package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/domain/repository"
	"goldmarket/pkg/errors"
)

const usersCollection = "users"

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	user.ID = doc.Ref.ID

	return &user, nil
}

func (r *firestoreUserRepository) GetFCMTokens(ctx context.Context, userID string) ([]string, error) {
	doc, err := r.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user tokens", err)
	}

	// A missing or non-array field means no tokens.
	return dedupeNonEmpty(toStringSlice(doc.Data()["fcmTokens"])), nil
}

func (r *firestoreUserRepository) AddFCMToken(ctx context.Context, userID, token string) error {
	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "fcmTokens", Value: firestore.ArrayUnion(token)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("User", err)
		}
		return errors.Internal("Failed to register push token", err)
	}
	return nil
}

func (r *firestoreUserRepository) RemoveFCMTokens(ctx context.Context, userID string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	values := make([]interface{}, len(tokens))
	for i, t := range tokens {
		values[i] = t
	}

	_, err := r.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "fcmTokens", Value: firestore.ArrayRemove(values...)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("User", err)
		}
		return errors.Internal("Failed to prune push tokens", err)
	}
	return nil
}
