package local

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
)

// KeyOfflineUser clave de las credenciales cacheadas.
const KeyOfflineUser = "offline_user"

var errSealed = errors.New("credenciales locales ilegibles")

// CredentialStore guarda las credenciales del último login cifradas con secretbox.
type CredentialStore struct {
	kv  KeyValueStore
	key [32]byte
}

// NewCredentialStore deriva la llave de cifrado de secret.
func NewCredentialStore(kv KeyValueStore, secret string) *CredentialStore {
	return &CredentialStore{kv: kv, key: sha256.Sum256([]byte(secret))}
}

// Save cifra y persiste las credenciales.
func (s *CredentialStore) Save(ctx context.Context, c entity.Credentials) error {
	plain, err := json.Marshal(c)
	if err != nil {
		return err
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("generar nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plain, &nonce, &s.key)
	return s.kv.SetItem(ctx, KeyOfflineUser, sealed)
}

// Load descifra las credenciales guardadas; ok=false si no hay.
func (s *CredentialStore) Load(ctx context.Context) (*entity.Credentials, bool, error) {
	sealed, ok, err := s.kv.GetItem(ctx, KeyOfflineUser)
	if err != nil || !ok || len(sealed) == 0 {
		return nil, false, err
	}
	if len(sealed) < 24+secretbox.Overhead {
		return nil, false, errSealed
	}
	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, opened := secretbox.Open(nil, sealed[24:], &nonce, &s.key)
	if !opened {
		return nil, false, errSealed
	}
	var c entity.Credentials
	if err := json.Unmarshal(plain, &c); err != nil {
		return nil, false, fmt.Errorf("%w: %v", errSealed, err)
	}
	return &c, true, nil
}

// Clear borra las credenciales (cierre de sesión explícito).
func (s *CredentialStore) Clear(ctx context.Context) error {
	return s.kv.SetItem(ctx, KeyOfflineUser, nil)
}
