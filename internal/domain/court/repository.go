package court

import "context"

// Repository describes court and price rule persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, courtID string) (Court, bool, error)
	ListByComplex(ctx context.Context, complexID string) ([]Court, error)
	ListPriceRules(ctx context.Context, courtID string) ([]PriceRule, error)
}
