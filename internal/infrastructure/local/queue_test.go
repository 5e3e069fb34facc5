package local_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/infrastructure/local"
)

func openKV(t *testing.T, dir string) *local.KVStore {
	t.Helper()
	h, err := local.OpenAt(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return local.NewKVStore(h)
}

func action(id string) entity.QueuedAction {
	return entity.QueuedAction{
		ID:    id,
		Type:  entity.ActionStockIn,
		Token: "tok-" + id,
		Payload: entity.ActionPayload{
			Operation: entity.StockIn{Mode: entity.ModeDirect, Items: []entity.StockInItem{
				{ProductID: "px", SKU: "X", LocationID: "A", Quantity: 1},
			}},
			UserID: "u1",
		},
	}
}

// ─── KV ─────────────────────────────────────────────────────────────────────

func TestKVStore_GetSet(t *testing.T) {
	ctx := context.Background()
	kv := openKV(t, t.TempDir())

	_, ok, err := kv.GetItem(ctx, "x")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.SetItem(ctx, "x", []byte("uno")))
	require.NoError(t, kv.SetItem(ctx, "x", []byte("dos")))
	v, ok, err := kv.GetItem(ctx, "x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dos", string(v))
}

// ─── Cola durable ───────────────────────────────────────────────────────────

func TestDurableQueue_SobreviveReinicio(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	h, err := local.OpenAt(dir)
	require.NoError(t, err)
	q, err := local.OpenQueue(ctx, local.NewKVStore(h))
	require.NoError(t, err)
	require.NoError(t, q.Append(ctx, action("a1")))
	require.NoError(t, q.Append(ctx, action("a2")))
	require.NoError(t, q.RemoveHead(ctx))
	require.NoError(t, h.Close())

	q2, err := local.OpenQueue(ctx, openKV(t, dir))
	require.NoError(t, err)
	require.Equal(t, 1, q2.Len())
	head, ok := q2.PeekHead()
	require.True(t, ok)
	assert.Equal(t, "a2", head.ID)
	assert.Equal(t, "tok-a2", head.Token)
	in, ok := head.Payload.Operation.(entity.StockIn)
	require.True(t, ok)
	assert.Equal(t, 1, in.Items[0].Quantity)
}

func TestDurableQueue_FIFO(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		q, err := local.OpenQueue(ctx, newFakeKV())
		require.NoError(rt, err)

		n := rapid.IntRange(0, 30).Draw(rt, "n")
		var want []string
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("a%d", i)
			want = append(want, id)
			require.NoError(rt, q.Append(ctx, action(id)))
		}
		var got []string
		for q.Len() > 0 {
			head, _ := q.PeekHead()
			got = append(got, head.ID)
			require.NoError(rt, q.RemoveHead(ctx))
		}
		require.Equal(rt, want, got)
	})
}

func TestDurableQueue_EscrituraFallidaNoCambiaMemoria(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	q, err := local.OpenQueue(ctx, kv)
	require.NoError(t, err)
	require.NoError(t, q.Append(ctx, action("a1")))

	kv.fail = errors.New("disco lleno")
	require.Error(t, q.Append(ctx, action("a2")))
	require.Error(t, q.RemoveHead(ctx))
	assert.Equal(t, 1, q.Len())

	kv.fail = nil
	q2, err := local.OpenQueue(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, 1, q2.Len())
}

func TestDurableQueue_AccionesMuertas(t *testing.T) {
	ctx := context.Background()
	q, err := local.OpenQueue(ctx, openKV(t, t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, q.Append(ctx, action("a1")))
	require.NoError(t, q.Append(ctx, action("a2")))

	require.ErrorIs(t, q.DeadLetter(ctx, action("a2"), "x"), domain.ErrNotFound, "solo se descarta la cabeza")

	require.NoError(t, q.DeadLetter(ctx, action("a1"), "producto inexistente"))
	assert.Equal(t, 1, q.Len())
	dead := q.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, "a1", dead[0].Action.ID)
	assert.Equal(t, "producto inexistente", dead[0].Reason)

	a, err := q.Requeue(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "tok-a1", a.Token, "conserva el token de idempotencia")
	assert.Equal(t, 0, q.DeadLetterCount())
	snap := q.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a1", snap[1].ID)

	require.NoError(t, q.RemoveHead(ctx))
	require.NoError(t, q.DeadLetter(ctx, action("a1"), "otra vez"))
	require.NoError(t, q.Discard(ctx, "a1"))
	assert.Empty(t, q.DeadLetters())
	require.ErrorIs(t, q.Discard(ctx, "a1"), domain.ErrNotFound)
}

func TestDurableQueue_ConservaAccionDesconocida(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	kv.data[local.KeyPendingWrites] = []byte(`[{"id":"z1","type":"ADJUST_PRICE","token":"t","payload":{"operationData":{"sku":"X","price":3},"userId":"u1","user":{"displayName":"Ana"}},"enqueuedAt":"2025-01-15T10:00:00Z"}]`)

	q, err := local.OpenQueue(ctx, kv)
	require.NoError(t, err)
	head, ok := q.PeekHead()
	require.True(t, ok)
	assert.Nil(t, head.Payload.Operation)

	require.NoError(t, q.DeadLetter(ctx, head, "acción desconocida"))
	assert.Contains(t, string(kv.data[local.KeyDeadLetters]), `"price":3`)
}

// ─── Credenciales ───────────────────────────────────────────────────────────

func TestCredentialStore_CifraYRecupera(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	s := local.NewCredentialStore(kv, "llave")

	_, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, entity.Credentials{Email: "ana@example.com", Password: "secreto123"}))
	assert.NotContains(t, string(kv.data[local.KeyOfflineUser]), "secreto123")

	c, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "secreto123", c.Password)

	_, _, err = local.NewCredentialStore(kv, "otra-llave").Load(ctx)
	require.Error(t, err)

	require.NoError(t, s.Clear(ctx))
	_, ok, err = s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

// fakeKV almacén en memoria con fallo inyectable.
type fakeKV struct {
	data map[string][]byte
	fail error
}

func newFakeKV() *fakeKV { return &fakeKV{data: map[string][]byte{}} }

func (f *fakeKV) GetItem(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) SetItem(_ context.Context, key string, value []byte) error {
	if f.fail != nil {
		return f.fail
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) SetItems(_ context.Context, items map[string][]byte) error {
	if f.fail != nil {
		return f.fail
	}
	for k, v := range items {
		f.data[k] = v
	}
	return nil
}
