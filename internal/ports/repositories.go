package ports

import (
	"context"

	"github.com/idlist/accounts-api/internal/domain/entities"
)

// AccountRepository defines access to the persisted account collection
type AccountRepository interface {
	// Read loads the stored collection. It never returns a Go error; the
	// outcome is carried in the result's Status.
	Read(ctx context.Context) entities.ReadResult
	// Write overwrites the stored collection in full
	Write(ctx context.Context, collection entities.Collection) error
	// Path returns the resolved location of the backing file
	Path() string
}
