package ports

import (
	"context"

	"github.com/idlist/accounts-api/internal/domain/entities"
)

// AccountService interface for account collection operations
type AccountService interface {
	Get(ctx context.Context) entities.ReadResult
	Replace(ctx context.Context, body []byte) error
}

// StoreObserver receives one call per backing file operation
type StoreObserver interface {
	ObserveStoreOperation(operation, result string)
}
