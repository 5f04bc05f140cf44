package venue

import "context"

// Repository describes complex persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, complexID string) (Complex, bool, error)
	ListCourtIDs(ctx context.Context, complexID string) ([]string, error)
}
