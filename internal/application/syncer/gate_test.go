package syncer_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/auth"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/dto"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/syncer"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/infrastructure/local"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/infrastructure/memory"
)

func newGate(t *testing.T) *syncer.Gate {
	t.Helper()
	users := memory.NewUserRepository()
	a := auth.NewAuthUseCase(users, "tienda-1", auth.JWTConfig{Secret: "s", ExpMinutes: 10, Issuer: "syncd"})
	_, err := a.RegisterUser(context.Background(), dto.RegisterRequest{Email: "ana@example.com", Password: "secreto123", Name: "Ana"})
	require.NoError(t, err)
	creds := local.NewCredentialStore(newMemKV(), "llave-local")
	return syncer.NewGate(a, creds, zerolog.Nop())
}

func TestGate_OnlineRequiereRedYModoManual(t *testing.T) {
	g := newGate(t)
	ctx := context.Background()

	var mu sync.Mutex
	var changes []bool
	g.OnChange(func(online bool) {
		mu.Lock()
		changes = append(changes, online)
		mu.Unlock()
	})

	_, err := g.SignIn(ctx, "ana@example.com", "secreto123")
	require.NoError(t, err)
	assert.False(t, g.IsOnline(), "sin red confirmada sigue offline")
	require.ErrorIs(t, g.Guard(), domain.ErrOfflineBlocked)

	g.SetReachable(true)
	assert.True(t, g.IsOnline())
	assert.NoError(t, g.Guard())
	assert.Equal(t, "Ana", g.Session().DisplayName)

	g.SetReachable(false)
	assert.False(t, g.IsOnline())

	mu.Lock()
	assert.Equal(t, []bool{true, false}, changes)
	mu.Unlock()
}

func TestGate_GoOnlineSinCredenciales(t *testing.T) {
	g := newGate(t)
	g.SetReachable(true)

	err := g.GoOnline(context.Background())
	require.ErrorIs(t, err, domain.ErrAuth)
	assert.False(t, g.IsOnline())
}

func TestGate_GoOnlineConCredencialesGuardadas(t *testing.T) {
	g := newGate(t)
	ctx := context.Background()
	g.SetReachable(true)

	_, err := g.SignIn(ctx, "ana@example.com", "secreto123")
	require.NoError(t, err)
	g.GoOffline(ctx)
	assert.False(t, g.IsOnline())
	assert.Nil(t, g.Session())

	require.NoError(t, g.GoOnline(ctx))
	assert.True(t, g.IsOnline())
	assert.NotEmpty(t, g.Session().Token)

	require.NoError(t, g.SignOut(ctx))
	require.ErrorIs(t, g.GoOnline(ctx), domain.ErrAuth, "sin credenciales tras cerrar sesión")
}

func TestGate_SignInRechazado(t *testing.T) {
	g := newGate(t)
	g.SetReachable(true)

	_, err := g.SignIn(context.Background(), "ana@example.com", "mala")
	require.ErrorIs(t, err, domain.ErrAuth)
	assert.False(t, g.IsOnline())
}

type flakyProber struct{ up atomic.Bool }

func (p *flakyProber) Ping(context.Context) error {
	if p.up.Load() {
		return nil
	}
	return errors.New("connection refused")
}

func TestGate_WatchActualizaAlcance(t *testing.T) {
	g := newGate(t)
	p := &flakyProber{}
	p.up.Store(true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- g.Watch(ctx, p, 5*time.Millisecond) }()

	assert.Eventually(t, g.Reachable, time.Second, time.Millisecond)
	p.up.Store(false)
	assert.Eventually(t, func() bool { return !g.Reachable() }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

// ─── Sesión sin red ──────────────────────────────────────────────────────────

// downAuth simula el almacén caído (down) o una cuenta revocada (reject) delante del login real.
type downAuth struct {
	*auth.AuthUseCase
	down   atomic.Bool
	reject atomic.Bool
}

func (a *downAuth) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	if a.down.Load() {
		return nil, errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
	}
	if a.reject.Load() {
		return nil, domain.ErrAuth
	}
	return a.AuthUseCase.Login(ctx, email, password)
}

func newDownGate(t *testing.T) (*syncer.Gate, *downAuth) {
	t.Helper()
	users := memory.NewUserRepository()
	uc := auth.NewAuthUseCase(users, "tienda-1", auth.JWTConfig{Secret: "s", ExpMinutes: 10, Issuer: "syncd"})
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "ana@example.com", Password: "secreto123", Name: "Ana", Role: "bodeguero"})
	require.NoError(t, err)
	a := &downAuth{AuthUseCase: uc}
	g := syncer.NewGate(a, local.NewCredentialStore(newMemKV(), "llave-local"), zerolog.Nop())
	return g, a
}

func TestGate_SignInSinRedUsaCredencialesGuardadas(t *testing.T) {
	g, a := newDownGate(t)
	ctx := context.Background()

	_, err := g.SignIn(ctx, "ana@example.com", "secreto123")
	require.NoError(t, err)
	g.GoOffline(ctx)

	a.down.Store(true)
	_, err = g.SignIn(ctx, "ana@example.com", "otra")
	require.ErrorIs(t, err, domain.ErrAuth)

	s, err := g.SignIn(ctx, "ANA@example.com", "secreto123")
	require.NoError(t, err)
	assert.True(t, s.Local)
	assert.Equal(t, "Ana", s.DisplayName)
	assert.Equal(t, "bodeguero", s.Role)
	assert.NotEmpty(t, s.Token)
	assert.False(t, g.IsOnline(), "sin red sigue offline")
	require.ErrorIs(t, g.Guard(), domain.ErrOfflineBlocked)

	// Al volver la red la sesión local se verifica contra el almacén.
	a.down.Store(false)
	var resumeErr error
	g.OnReachable(func(ok bool) {
		if ok {
			resumeErr = g.ResumeSession(ctx)
		}
	})
	g.SetReachable(true)
	require.NoError(t, resumeErr)
	assert.True(t, g.IsOnline())
	assert.False(t, g.Session().Local)
}

func TestGate_SignInSinRedNiCredenciales(t *testing.T) {
	g, a := newDownGate(t)
	a.down.Store(true)

	_, err := g.SignIn(context.Background(), "ana@example.com", "secreto123")
	require.ErrorIs(t, err, domain.ErrOfflineBlocked)
	assert.Nil(t, g.Session())
}

func TestGate_SesionLocalRechazadaAlVolverLaRed(t *testing.T) {
	g, a := newDownGate(t)
	ctx := context.Background()

	_, err := g.SignIn(ctx, "ana@example.com", "secreto123")
	require.NoError(t, err)
	g.GoOffline(ctx)
	a.down.Store(true)
	_, err = g.SignIn(ctx, "ana@example.com", "secreto123")
	require.NoError(t, err)

	a.down.Store(false)
	a.reject.Store(true)
	var resumeErr error
	g.OnReachable(func(ok bool) {
		if ok {
			resumeErr = g.ResumeSession(ctx)
		}
	})
	g.SetReachable(true)
	require.ErrorIs(t, resumeErr, domain.ErrAuth)
	assert.False(t, g.IsOnline())
	assert.Nil(t, g.Session())
}

func TestGate_ResumeSessionNoToca(t *testing.T) {
	g, a := newDownGate(t)
	ctx := context.Background()

	// Sin red no intenta nada.
	require.NoError(t, g.ResumeSession(ctx))

	g.SetReachable(true)
	_, err := g.SignIn(ctx, "ana@example.com", "secreto123")
	require.NoError(t, err)
	a.down.Store(true)
	require.NoError(t, g.ResumeSession(ctx), "una sesión verificada no se repite")
	assert.True(t, g.IsOnline())
}
