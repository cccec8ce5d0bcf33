package analysis

import "context"

// Repository port for persisting and querying analysis audit records
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*Record, error)
}

// ArtifactStore port (interface untuk penyimpanan artefak)
type ArtifactStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}
