package sweeper

import (
	"context"
)

// Sweeper is a long-running background task that repairs derived state on a schedule
type Sweeper interface {
	// Start runs the sweep loop until ctx is canceled or Stop is called
	Start(ctx context.Context) error

	// Stop signals the loop to exit and waits for the in-flight cycle to finish
	Stop(ctx context.Context) error

	Name() string
}
