package listing

import "context"

// TableProvider supplies the current listings table. The dataset
// application service implements it; the recommender consumes it.
type TableProvider interface {
	Current(ctx context.Context) (*Table, error)
}
