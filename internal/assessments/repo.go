package assessments

import "context"

// Repo defines persistence operations for assessment history.
type Repo interface {
	Create(ctx context.Context, record Record) error
	GetByID(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, limit, offset int) ([]Record, error)
}
