package auth

import (
	"context"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-feed/backend/internal/models"
)

// IDTokenVerifier is the part of the Firebase auth client used here.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseIdentity is what a verified Firebase ID token says about its holder.
type FirebaseIdentity struct {
	UID   string
	Email string
	Name  string
}

// FirebaseVerifier accepts Firebase ID tokens. Resolve maps a Firebase UID to
// a local user id.
type FirebaseVerifier struct {
	client  IDTokenVerifier
	resolve func(ctx context.Context, uid string) (uint, error)
}

func NewFirebaseVerifier(client IDTokenVerifier, resolve func(ctx context.Context, uid string) (uint, error)) *FirebaseVerifier {
	return &FirebaseVerifier{client: client, resolve: resolve}
}

func (v *FirebaseVerifier) Identify(ctx context.Context, idToken string) (*FirebaseIdentity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid Firebase ID token")
	}
	id := &FirebaseIdentity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (uint, error) {
	id, err := v.Identify(ctx, idToken)
	if err != nil {
		return 0, err
	}
	userID, err := v.resolve(ctx, id.UID)
	if err != nil {
		if models.IsNotFound(err) {
			return 0, models.NewUnauthorizedError("Not authorized, user not found")
		}
		return 0, err
	}
	return userID, nil
}
