package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `products:
  - id: 1
    title: Tênis de Caminhada Leve Confortável
    price: 179.9
    image: https://example.com/1.jpg
    stock: 3
  - id: 2
    title: Tênis VR Caminhada Confortável Detalhes Couro Masculino
    price: 139.9
    image: https://example.com/2.jpg
    stock: 5
`

func writeSeedFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	items, err := LoadSeedFile(writeSeedFile(t, seedYAML))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[1].ID)
	assert.Equal(t, 5, items[1].Stock)
	assert.Equal(t, 139.9, items[1].Product().Price)
}

func TestLoadSeedFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown field", "products:\n  - id: 1\n    stok: 2\n", "failed to parse YAML"},
		{"bad id", "products:\n  - id: 0\n", "id must be positive"},
		{"duplicate", "products:\n  - id: 1\n  - id: 1\n", "duplicate id 1"},
		{"negative stock", "products:\n  - id: 1\n    stock: -1\n", "stock must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSeedFile(writeSeedFile(t, tt.body))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

type recordingTarget struct {
	ids []int64
	err error
}

func (r *recordingTarget) Seed(_ context.Context, item SeedItem) error {
	if r.err != nil {
		return r.err
	}
	r.ids = append(r.ids, item.ID)
	return nil
}

func TestSeed(t *testing.T) {
	items, err := LoadSeedFile(writeSeedFile(t, seedYAML))
	require.NoError(t, err)

	a, b := &recordingTarget{}, &recordingTarget{}
	require.NoError(t, Seed(context.Background(), items, a, b))
	assert.Equal(t, []int64{1, 2}, a.ids)
	assert.Equal(t, []int64{1, 2}, b.ids)

	err = Seed(context.Background(), items, &recordingTarget{err: errors.New("boom")})
	assert.EqualError(t, err, "seed product 1: boom")
}

func TestSeedCommand_RedisStock(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDR", mr.Addr())

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"seed", "-f", writeSeedFile(t, seedYAML), "--mysql=false", "--redis-stock"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "seeded 2 products")

	v, err := mr.Get("stock:2")
	require.NoError(t, err)
	assert.Equal(t, "5", v)
}

func TestSeedCommand_NothingToSeed(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"seed", "-f", writeSeedFile(t, seedYAML), "--mysql=false"})

	assert.ErrorContains(t, cmd.Execute(), "nothing to seed")
}
