package syncer

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/auth"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// Authenticator valida credenciales contra el almacén compartido y abre sesiones locales con el
// perfil guardado cuando no hay red.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Resume(c entity.Credentials) (*auth.Session, error)
}

// CredentialCache credenciales del último login, guardadas localmente.
type CredentialCache interface {
	Save(ctx context.Context, c entity.Credentials) error
	Load(ctx context.Context) (*entity.Credentials, bool, error)
	Clear(ctx context.Context) error
}

// Prober verifica que el almacén compartido responda.
type Prober interface {
	Ping(ctx context.Context) error
}

// Gate decide si la aplicación está online: el almacén responde Y el usuario eligió modo online.
type Gate struct {
	auth  Authenticator
	creds CredentialCache
	log   zerolog.Logger

	mu             sync.RWMutex
	reachable      bool
	manual         bool
	session        *auth.Session
	listeners      []func(online bool)
	reachListeners []func(ok bool)
}

// NewGate construye la compuerta. Arranca sin red confirmada y en modo offline.
func NewGate(a Authenticator, creds CredentialCache, log zerolog.Logger) *Gate {
	return &Gate{auth: a, creds: creds, log: log}
}

// IsOnline red alcanzable y modo manual online.
func (g *Gate) IsOnline() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reachable && g.manual
}

// Reachable último resultado de la sonda.
func (g *Gate) Reachable() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reachable
}

// Session sesión vigente; nil si no hay.
func (g *Gate) Session() *auth.Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.session == nil {
		return nil
	}
	s := *g.session
	return &s
}

// OnChange registra fn para cada cambio del estado derivado online/offline.
func (g *Gate) OnChange(fn func(online bool)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// OnReachable registra fn para cada cambio de alcanzabilidad del almacén.
func (g *Gate) OnReachable(fn func(ok bool)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reachListeners = append(g.reachListeners, fn)
}

// Guard devuelve ErrOfflineBlocked si la aplicación está offline.
func (g *Gate) Guard() error {
	if !g.IsOnline() {
		return fmt.Errorf("%w: la operación requiere conexión", domain.ErrOfflineBlocked)
	}
	return nil
}

// SignIn login interactivo. Si tiene éxito guarda las credenciales y activa el modo online.
// Con el almacén caído se acepta el login contra las credenciales guardadas y se abre una sesión
// local; el modo queda online y la sesión se verifica al recuperar la red.
func (g *Gate) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	s, err := g.auth.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrAuth) {
			return nil, err
		}
		local, lerr := g.localSession(ctx, email, password)
		if lerr != nil {
			g.log.Warn().Err(err).Msg("almacén no disponible para iniciar sesión")
			return nil, lerr
		}
		g.update(func() {
			g.session = local
			g.manual = true
		})
		g.log.Info().Str("user_id", local.UserID).Msg("sesión local con credenciales guardadas")
		return local, nil
	}
	cached := entity.Credentials{
		Email:       email,
		Password:    password,
		UserID:      s.UserID,
		DisplayName: s.DisplayName,
		Role:        s.Role,
	}
	if err := g.creds.Save(ctx, cached); err != nil {
		// sin caché solo se pierde la re-autenticación automática
		g.log.Warn().Err(err).Msg("no se pudieron guardar las credenciales locales")
	}
	g.update(func() {
		g.session = s
		g.manual = true
	})
	g.log.Info().Str("user_id", s.UserID).Msg("sesión iniciada")
	return s, nil
}

// localSession valida email y password contra las credenciales guardadas.
func (g *Gate) localSession(ctx context.Context, email, password string) (*auth.Session, error) {
	c, ok, err := g.creds.Load(ctx)
	if err != nil || !ok {
		return nil, fmt.Errorf("%w: almacén no disponible y sin credenciales locales", domain.ErrOfflineBlocked)
	}
	sameEmail := strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(c.Email))
	samePassword := subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	if !sameEmail || !samePassword {
		return nil, fmt.Errorf("%w: credenciales inválidas", domain.ErrAuth)
	}
	return g.auth.Resume(*c)
}

// GoOnline re-autentica con las credenciales guardadas. Sin credenciales, o si son rechazadas,
// devuelve ErrAuth y el modo queda offline.
func (g *Gate) GoOnline(ctx context.Context) error {
	c, ok, err := g.creds.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAuth, err)
	}
	if !ok {
		return fmt.Errorf("%w: no hay credenciales guardadas", domain.ErrAuth)
	}
	s, err := g.auth.Login(ctx, c.Email, c.Password)
	if err != nil {
		if !errors.Is(err, domain.ErrAuth) {
			return fmt.Errorf("re-autenticar: %w", err)
		}
		// una sesión local rechazada por el almacén no puede seguir online
		g.update(func() {
			if g.session != nil && g.session.Local {
				g.session = nil
				g.manual = false
			}
		})
		return err
	}
	g.update(func() {
		g.session = s
		g.manual = true
	})
	g.log.Info().Str("user_id", s.UserID).Msg("modo online")
	return nil
}

// GoOffline suelta la sesión y pasa a modo offline. Las credenciales guardadas se conservan.
func (g *Gate) GoOffline(context.Context) {
	g.update(func() {
		g.session = nil
		g.manual = false
	})
	g.log.Info().Msg("modo offline")
}

// SignOut pasa a offline y borra las credenciales guardadas.
func (g *Gate) SignOut(ctx context.Context) error {
	g.GoOffline(ctx)
	return g.creds.Clear(ctx)
}

// ResumeSession re-autentica contra el almacén cuando hay red y la sesión actual falta o es
// local. Sin credenciales guardadas devuelve ErrAuth.
func (g *Gate) ResumeSession(ctx context.Context) error {
	if !g.Reachable() {
		return nil
	}
	if s := g.Session(); s != nil && !s.Local {
		return nil
	}
	return g.GoOnline(ctx)
}

// SetReachable registra el resultado de la sonda de red.
func (g *Gate) SetReachable(ok bool) {
	g.mu.RLock()
	changed := g.reachable != ok
	g.mu.RUnlock()
	if !changed {
		return
	}
	g.update(func() { g.reachable = ok })
	if ok {
		g.log.Info().Msg("almacén alcanzable")
	} else {
		g.log.Warn().Msg("almacén no alcanzable")
	}
	g.mu.RLock()
	listeners := append([]func(bool){}, g.reachListeners...)
	g.mu.RUnlock()
	for _, l := range listeners {
		l(ok)
	}
}

// Watch sondea p cada interval hasta que ctx termine. La primera sonda es inmediata.
func (g *Gate) Watch(ctx context.Context, p Prober, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		probeCtx, cancel := context.WithTimeout(ctx, interval)
		err := p.Ping(probeCtx)
		cancel()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			g.log.Debug().Err(err).Msg("sonda fallida")
		}
		g.SetReachable(err == nil)

		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// update aplica fn bajo el candado y notifica a los suscriptores si cambió el estado derivado.
func (g *Gate) update(fn func()) {
	g.mu.Lock()
	before := g.reachable && g.manual
	fn()
	after := g.reachable && g.manual
	listeners := append([]func(bool){}, g.listeners...)
	g.mu.Unlock()

	if before == after {
		return
	}
	for _, l := range listeners {
		l(after)
	}
}
