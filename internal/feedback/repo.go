package feedback

import "context"

// Repo persists completed analyses.
type Repo interface {
	Create(ctx context.Context, rec Record) error
}
