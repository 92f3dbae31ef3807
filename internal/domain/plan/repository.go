package plan

import (
	"context"

	"github.com/ispbilling/ispbilling/internal/types"
)

// Repository defines the interface for plan persistence.
// Every method is scoped to the tenant carried by ctx.
type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	List(ctx context.Context, filter *types.PlanFilter) ([]*Plan, error)
	Count(ctx context.Context, filter *types.PlanFilter) (int, error)
	Update(ctx context.Context, plan *Plan) error
}
