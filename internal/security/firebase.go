package security

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"saju-backend/internal/logger"
)

// Identity is what an external identity provider vouches for.
type Identity struct {
	UID   string
	Email string
	Name  string
}

// IdentityVerifier checks ID tokens issued by an external provider.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
}

type FirebaseVerifier struct {
	client *auth.Client
}

// NewFirebaseVerifier uses the credentials file when given, otherwise the
// application default credentials.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	logger.ExternalServiceCall("firebase", "VerifyIDToken")
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		logger.ExternalServiceResult("firebase", "VerifyIDToken", err)
		if auth.IsIDTokenExpired(err) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	logger.ExternalServiceResult("firebase", "VerifyIDToken", nil, "uid", token.UID)

	id := &Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}
