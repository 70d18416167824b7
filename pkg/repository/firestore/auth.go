package firestore

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cottus/pkg/domain/model/auth"
	"github.com/secmon-lab/cottus/pkg/domain/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type tokenDocument struct {
	ID        string    `firestore:"id"`
	Secret    string    `firestore:"secret"`
	Sub       string    `firestore:"sub"`
	SessionID string    `firestore:"session_id"`
	ExpiresAt time.Time `firestore:"expires_at"`
	CreatedAt time.Time `firestore:"created_at"`
}

func (r *Firestore) tokensCollection() string {
	return CollectionName(r.collectionPrefix, "tokens")
}

func (r *Firestore) PutToken(ctx context.Context, token *auth.Token) error {
	if err := token.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token")
	}

	doc := &tokenDocument{
		ID:        token.ID.String(),
		Secret:    token.Secret.String(),
		Sub:       token.Sub.String(),
		SessionID: token.SessionID.String(),
		ExpiresAt: token.ExpiresAt,
		CreatedAt: token.CreatedAt,
	}

	docRef := r.client.Collection(r.tokensCollection()).Doc(token.ID.String())
	if _, err := docRef.Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to put token to firestore")
	}

	return nil
}

func (r *Firestore) GetToken(ctx context.Context, tokenID auth.TokenID) (*auth.Token, error) {
	if err := tokenID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid token ID")
	}

	docRef := r.client.Collection(r.tokensCollection()).Doc(tokenID.String())
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "token not found", goerr.V("token_id", tokenID))
		}
		return nil, goerr.Wrap(err, "failed to get token from firestore")
	}

	var tokenDoc tokenDocument
	if err := doc.DataTo(&tokenDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal token")
	}

	return &auth.Token{
		ID:        auth.TokenID(tokenDoc.ID),
		Secret:    auth.TokenSecret(tokenDoc.Secret),
		Sub:       types.CompanyID(tokenDoc.Sub),
		SessionID: types.SessionID(tokenDoc.SessionID),
		ExpiresAt: tokenDoc.ExpiresAt,
		CreatedAt: tokenDoc.CreatedAt,
	}, nil
}

func (r *Firestore) DeleteToken(ctx context.Context, tokenID auth.TokenID) error {
	if err := tokenID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid token ID")
	}

	docRef := r.client.Collection(r.tokensCollection()).Doc(tokenID.String())

	// Check if document exists first
	_, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "token not found", goerr.V("token_id", tokenID))
		}
		return goerr.Wrap(err, "failed to get token from firestore")
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete token from firestore")
	}

	return nil
}
