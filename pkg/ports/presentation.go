package ports

import (
	"context"

	"github.com/aretw0/mrt/pkg/domain"
)

// Renderer draws frames. It is invoked synchronously from the session loop
// and must return promptly.
type Renderer interface {
	Render(ctx context.Context, frame domain.Frame) error
}

// InputSource emits discrete inputs. The channel is closed when the source
// is exhausted.
type InputSource interface {
	Inputs() <-chan domain.Input
}

// IdentifierProvider supplies the participant identity before any trial is generated.
type IdentifierProvider interface {
	Identify(ctx context.Context) (domain.Identity, error)
}
