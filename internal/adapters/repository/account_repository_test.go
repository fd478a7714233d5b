package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idlist/accounts-api/internal/domain/entities"
)

func newTestRepo(t *testing.T) (*AccountFileRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "id_list.json")
	return NewAccountFileRepository(path).(*AccountFileRepository), path
}

func TestAccountFileRepository_Read_MissingFile(t *testing.T) {
	repo, _ := newTestRepo(t)

	result := repo.Read(context.Background())

	assert.Equal(t, entities.ReadNotFound, result.Status)
	assert.Nil(t, result.Err)
	assert.JSONEq(t, `[]`, string(result.Body()))
}

func TestAccountFileRepository_WriteThenRead(t *testing.T) {
	repo, _ := newTestRepo(t)
	collection := entities.Collection{
		json.RawMessage(`{"id":1,"name":"x"}`),
		json.RawMessage(`{"z":true,"a":[1,2]}`),
	}

	require.NoError(t, repo.Write(context.Background(), collection))
	result := repo.Read(context.Background())

	require.Equal(t, entities.ReadFound, result.Status)
	assert.Equal(t, `[{"id":1,"name":"x"},{"z":true,"a":[1,2]}]`, string(result.Data))
}

func TestAccountFileRepository_Write_PrettyPrints(t *testing.T) {
	repo, path := newTestRepo(t)

	require.NoError(t, repo.Write(context.Background(), entities.Collection{json.RawMessage(`{"id":1,"name":"x"}`)}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	expected := "[\n  {\n    \"id\": 1,\n    \"name\": \"x\"\n  }\n]"
	assert.Equal(t, expected, string(data))
}

func TestAccountFileRepository_Write_EmptyAndNil(t *testing.T) {
	repo, path := newTestRepo(t)

	for _, c := range []entities.Collection{nil, {}} {
		require.NoError(t, repo.Write(context.Background(), c))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(data))
	}
}

func TestAccountFileRepository_Write_FullReplace(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Write(ctx, entities.Collection{json.RawMessage(`{"id":1}`), json.RawMessage(`{"id":3}`)}))
	require.NoError(t, repo.Write(ctx, entities.Collection{json.RawMessage(`{"id":2}`)}))

	result := repo.Read(ctx)
	require.Equal(t, entities.ReadFound, result.Status)
	assert.Equal(t, `[{"id":2}]`, string(result.Data))
}

func TestAccountFileRepository_Read_Malformed(t *testing.T) {
	tests := map[string]string{
		"garbage":   "this is not json",
		"truncated": `[{"id":1}`,
		"empty":     "",
		"trailing":  `[] []`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			repo, path := newTestRepo(t)
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			result := repo.Read(context.Background())

			assert.Equal(t, entities.ReadFailed, result.Status)
			assert.Error(t, result.Err)
			assert.Nil(t, result.Body())
		})
	}
}

func TestAccountFileRepository_Read_NonArrayPassesThrough(t *testing.T) {
	repo, path := newTestRepo(t)
	require.NoError(t, os.WriteFile(path, []byte("{\n  \"a\": 1\n}"), 0o644))

	result := repo.Read(context.Background())

	require.Equal(t, entities.ReadFound, result.Status)
	assert.Equal(t, `{"a":1}`, string(result.Data))
}

func TestAccountFileRepository_Read_Directory(t *testing.T) {
	dir := t.TempDir()
	repo := NewAccountFileRepository(dir)

	result := repo.Read(context.Background())

	assert.Equal(t, entities.ReadFailed, result.Status)
	assert.Error(t, result.Err)
}

func TestAccountFileRepository_Write_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "id_list.json")
	repo := NewAccountFileRepository(path)

	err := repo.Write(context.Background(), entities.Collection{})

	assert.Error(t, err)
}

func TestAccountFileRepository_CanceledContext(t *testing.T) {
	repo, path := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := repo.Read(ctx)
	assert.Equal(t, entities.ReadFailed, result.Status)
	assert.ErrorIs(t, result.Err, context.Canceled)

	err := repo.Write(ctx, entities.Collection{})
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAccountFileRepository_Path(t *testing.T) {
	repo, path := newTestRepo(t)
	assert.Equal(t, path, repo.Path())
}

func TestAccountFileRepository_Write_KeepsHTMLCharacters(t *testing.T) {
	repo, path := newTestRepo(t)
	element := "{\"n\":\"<a&b>\",\"s\":\"line\u2028sep\"}"

	require.NoError(t, repo.Write(context.Background(), entities.Collection{json.RawMessage(element)}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"n\": \"<a&b>\",\n    \"s\": \"line\u2028sep\"\n  }\n]", string(data))
	assert.NotContains(t, string(data), `\u003c`)
	assert.NotContains(t, string(data), `\u0026`)

	result := repo.Read(context.Background())
	require.Equal(t, entities.ReadFound, result.Status)
	assert.Equal(t, "["+element+"]", string(result.Data))
}
