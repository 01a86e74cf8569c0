package ledger

import "context"

// Repository stores verification records.
type Repository interface {
	// ListAll returns every record. The slice is owned by the caller.
	ListAll(ctx context.Context) ([]Record, error)

	// Find returns the record for memberID or common.ErrNotFound.
	Find(ctx context.Context, memberID string) (*Record, error)

	// AppendIfAbsent stores rec unless a record with the same MemberID
	// exists. It reports whether rec was inserted.
	AppendIfAbsent(ctx context.Context, rec Record) (bool, error)

	// Close releases the underlying storage.
	Close() error
}
