package archive

import "context"

// NewStore picks the backend: PostgreSQL when a database URL is
// configured, a bounded in-memory archive otherwise.
func NewStore(ctx context.Context, databaseURL string) (Store, error) {
	if databaseURL == "" {
		return NewInMemoryStore(0), nil
	}
	return NewPostgresStore(ctx, databaseURL)
}
