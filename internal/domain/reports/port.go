package reports

import "context"

// Repository port for the report index
type Repository interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, r *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	Paginate(ctx context.Context, page, pageSize int) ([]*Report, int64, error)
	Ping(ctx context.Context) error
}

// ObjectStore port for report text
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Ping(ctx context.Context) error
}
