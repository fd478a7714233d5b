package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/idlist/accounts-api/internal/domain/entities"
	"github.com/idlist/accounts-api/internal/ports"
)

const (
	filePerm   = 0o644
	jsonIndent = "  "
)

// AccountFileRepository implements the AccountRepository interface on top
// of a single JSON file. It holds no copy of the data between calls and takes
// no locks, so concurrent writers race and the last one wins.
type AccountFileRepository struct {
	path string
}

// NewAccountFileRepository creates a repository backed by the file at path
func NewAccountFileRepository(path string) ports.AccountRepository {
	return &AccountFileRepository{path: path}
}

func (r *AccountFileRepository) Path() string {
	return r.path
}

func (r *AccountFileRepository) Read(ctx context.Context) entities.ReadResult {
	if err := ctx.Err(); err != nil {
		return entities.ReadError(fmt.Errorf("read accounts: %w", err))
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entities.NotFound()
		}
		return entities.ReadError(fmt.Errorf("read accounts file: %w", err))
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return entities.ReadError(fmt.Errorf("parse accounts file: %w", err))
	}

	return entities.Found(buf.Bytes())
}

func (r *AccountFileRepository) Write(ctx context.Context, collection entities.Collection) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("write accounts: %w", err)
	}

	if collection == nil {
		collection = entities.Collection{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", jsonIndent)
	if err := enc.Encode(collection); err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}

	// Encode appends a newline the stored format does not have
	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
	if err := os.WriteFile(r.path, data, filePerm); err != nil {
		return fmt.Errorf("write accounts file: %w", err)
	}

	return nil
}
