package service

import (
	"context"

	"github.com/GoPolymarket/polydesk/internal/model"
)

// CredentialStore is owned outside the core. Records are read fresh before
// every signature and never cached here.
type CredentialStore interface {
	Get(ctx context.Context, userID string) (*model.Credentials, error)
	Upsert(ctx context.Context, creds *model.Credentials) error
}
