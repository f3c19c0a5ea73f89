package location

import (
	"context"

	"github.com/google/uuid"
)

// LocationRepository defines persistence operations for locations.
type LocationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Location, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Location, error)
	ListActive(ctx context.Context) ([]*Location, error)
	Save(ctx context.Context, loc *Location) error
	Update(ctx context.Context, loc *Location) error

	// AdjustCounters adds the deltas to the slot counters in one guarded statement.
	// It fails with ErrCapacityInvariant if the result would break 0 <= available <= total.
	AdjustCounters(ctx context.Context, id uuid.UUID, totalDelta, availableDelta int) error
}
