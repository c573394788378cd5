package repository

import (
	"fmt"

	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
)

func notFound(userID string) error {
	return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("no credentials stored for user %q", userID), nil)
}
