package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"
)

// VerifiedUser is what the API needs out of a verified ID token.
type VerifiedUser struct {
	UID   string
	Admin bool
}

type FirebaseAuthClient struct {
	client *auth.Client
}

func NewFirebaseAuthClient(client *auth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (*VerifiedUser, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}

	admin, _ := result.Claims["admin"].(bool)
	return &VerifiedUser{UID: result.UID, Admin: admin}, nil
}

// GenerateToken mints a custom token, used by the development-only token route.
func (f *FirebaseAuthClient) GenerateToken(ctx context.Context, uid string) (string, error) {
	token, err := f.client.CustomToken(ctx, uid)
	if err != nil {
		return "", err
	}

	return token, nil
}
