package driven

import (
	"context"

	"github.com/regolet/mikrotikmonitoring/internal/domain/model"
)

// TelemetrySink receives snapshots produced by the broadcast loop. Delivery
// is best effort; implementations must not block the loop for long.
type TelemetrySink interface {
	Publish(ctx context.Context, snapshot model.Snapshot) error
}
