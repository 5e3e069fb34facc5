package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/infrastructure/memory"
)

// TestRun_ErrorDescartaEscrituras todo lo escrito en una transacción fallida desaparece.
func TestRun_ErrorDescartaEscrituras(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	boom := errors.New("boom")
	err := s.Run(ctx, "app", func(tx repository.Tx) error {
		require.NoError(t, tx.Locations.Create(ctx, &entity.Location{ID: "A", Name: "Bodega A"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.Run(ctx, "app", func(tx repository.Tx) error {
		l, err := tx.Locations.GetByID(ctx, "A")
		require.NoError(t, err)
		assert.Nil(t, l)
		return nil
	}))
}

// TestRun_ScopesAislados los documentos de un tenant no se ven desde otro.
func TestRun_ScopesAislados(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	require.NoError(t, s.Run(ctx, "uno", func(tx repository.Tx) error {
		return tx.Products.Create(ctx, &entity.Product{ID: "p1", SKU: "X"})
	}))
	require.NoError(t, s.Run(ctx, "dos", func(tx repository.Tx) error {
		p, err := tx.Products.GetBySKU(ctx, "X")
		assert.Nil(t, p)
		return err
	}))
}

// TestProductRepo_LecturasSonCopias modificar lo leído no altera el almacén sin un Update.
func TestProductRepo_LecturasSonCopias(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	require.NoError(t, s.Run(ctx, "app", func(tx repository.Tx) error {
		if err := tx.Products.Create(ctx, &entity.Product{ID: "p1", SKU: "X"}); err != nil {
			return err
		}
		p, err := tx.Products.GetByID(ctx, "p1")
		require.NoError(t, err)
		return p.Stock.Apply("A", 5)
	}))

	require.NoError(t, s.Run(ctx, "app", func(tx repository.Tx) error {
		p, err := tx.Products.GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 0, p.Stock.TotalInStock)
		return nil
	}))
}

func TestRun_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := memory.NewStore().Run(ctx, "app", func(repository.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
