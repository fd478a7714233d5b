package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/idlist/accounts-api/internal/domain/entities"
	"github.com/idlist/accounts-api/internal/infrastructure/logger"
	"github.com/idlist/accounts-api/internal/ports"
)

var (
	// ErrInvalidJSON is returned when a submitted body is not valid JSON
	ErrInvalidJSON = errors.New("body is not valid JSON")
	// ErrNotArray is returned when a submitted body is valid JSON but not an array
	ErrNotArray = errors.New("collection must be a JSON array")
	// ErrWriteFailed wraps any failure to persist the collection
	ErrWriteFailed = errors.New("failed to save collection")
)

const (
	opRead  = "read"
	opWrite = "write"
)

// AccountService handles reading and replacing the account collection
type AccountService struct {
	repo     ports.AccountRepository
	observer ports.StoreObserver
	logger   *logger.Logger
}

// NewAccountService creates a new account service. observer may be nil.
func NewAccountService(repo ports.AccountRepository, observer ports.StoreObserver, logger *logger.Logger) *AccountService {
	return &AccountService{
		repo:     repo,
		observer: observer,
		logger:   logger.WithComponent("account_service"),
	}
}

// Get reads the stored collection. A missing backing file is reported as
// ReadNotFound and callers should serve an empty collection.
func (s *AccountService) Get(ctx context.Context) entities.ReadResult {
	result := s.repo.Read(ctx)

	switch result.Status {
	case entities.ReadNotFound:
		s.logger.Infow("Data file not found, serving empty collection", "path", s.repo.Path())
	case entities.ReadFailed:
		s.logger.LogStoreOperation(opRead, s.repo.Path(), result.Status.String(), result.Err)
	default:
		s.logger.Debugw("Collection read", "path", s.repo.Path(), "bytes", len(result.Data))
	}

	s.observe(opRead, result.Status.String())
	return result
}

// Replace validates body as a JSON array and overwrites the stored
// collection with it. Nothing is written when validation fails.
func (s *AccountService) Replace(ctx context.Context, body []byte) error {
	collection, err := ParseCollection(body)
	if err != nil {
		s.logger.Warnw("Rejected collection", "error", err)
		s.observe(opWrite, "rejected")
		return err
	}

	if err := s.repo.Write(ctx, collection); err != nil {
		s.logger.LogStoreOperation(opWrite, s.repo.Path(), "error", err)
		s.observe(opWrite, "error")
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	s.logger.LogStoreOperation(opWrite, s.repo.Path(), "ok", nil)
	s.observe(opWrite, "ok")
	return nil
}

func (s *AccountService) observe(operation, result string) {
	if s.observer != nil {
		s.observer.ObserveStoreOperation(operation, result)
	}
}

// ParseCollection checks that body is a JSON array and splits it into its
// elements without decoding them.
func ParseCollection(body []byte) (entities.Collection, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return nil, ErrInvalidJSON
	}
	if trimmed[0] != '[' {
		return nil, ErrNotArray
	}

	collection := entities.Collection{}
	if err := json.Unmarshal(trimmed, &collection); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	return collection, nil
}
