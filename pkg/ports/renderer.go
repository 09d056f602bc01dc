package ports

import (
	"context"

	"github.com/aretw0/parsetrail/pkg/domain"
)

// Renderer is the drawing capability consumed by the replay engine.
// Implementations own layout and graphics; the engine only hands over data.
type Renderer interface {
	// DrawSnapshot lays out and draws the tree (top-down) or forest (bottom-up).
	DrawSnapshot(ctx context.Context, snap *domain.Snapshot) error

	// DrawHistory draws the stack history as a vertical list with one item marked current.
	DrawHistory(ctx context.Context, lines []string, current int) error

	// DrawIndicator updates the textual "current step" indicator.
	DrawIndicator(ctx context.Context, text string) error
}
