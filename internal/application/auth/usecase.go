package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/application/dto"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/entity"
	"github.com/worldelectronics558-art/inventory-plus-sub000/internal/domain/repository"
	"github.com/worldelectronics558-art/inventory-plus-sub000/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// Session sesión autenticada contra el almacén compartido.
type Session struct {
	UserID      string
	Email       string
	DisplayName string
	Role        string
	ScopeID     string
	Token       string
	ExpiresAt   time.Time
	// Local sesión abierta sin red con el perfil guardado; se verifica al recuperar conexión.
	Local       bool
}

// AuthUseCase casos de uso de autenticación: registro y login.
type AuthUseCase struct {
	userRepo repository.UserRepository
	scopeID  string
	jwtCfg   JWTConfig
	now      func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth. Los tokens se emiten para scopeID.
func NewAuthUseCase(userRepo repository.UserRepository, scopeID string, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, scopeID: scopeID, jwtCfg: jwtCfg, now: time.Now}
}

// RegisterUser crea un usuario: hashea password con bcrypt y persiste. Devuelve ErrDuplicate si el email ya existe.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email %s", domain.ErrDuplicate, email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	name := in.Name
	if name == "" {
		name = email
	}
	role := in.Role
	if role == "" {
		role = entity.RoleVendedor
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return ToUserResponse(user), nil
}

// Login verifica email/password y genera el JWT de la sesión.
// Usuario inexistente, password incorrecto o usuario inactivo devuelven ErrAuth.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: credenciales inválidas", domain.ErrAuth)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: credenciales inválidas", domain.ErrAuth)
	}
	if user.Status != entity.UserStatusActive {
		return nil, fmt.Errorf("%w: usuario inactivo", domain.ErrAuth)
	}
	return uc.issue(user.ID, user.Email, user.Name, user.Role, false)
}

// Resume abre una sesión local con el perfil de las credenciales guardadas, sin consultar el
// almacén. Sin perfil devuelve ErrAuth.
func (uc *AuthUseCase) Resume(c entity.Credentials) (*Session, error) {
	if c.UserID == "" || c.Role == "" {
		return nil, fmt.Errorf("%w: credenciales locales sin perfil", domain.ErrAuth)
	}
	return uc.issue(c.UserID, c.Email, c.DisplayName, c.Role, true)
}

func (uc *AuthUseCase) issue(userID, email, name, role string, local bool) (*Session, error) {
	token, exp, err := jwt.Generate(uc.jwtCfg.Secret, jwt.Subject{
		UserID:      userID,
		ScopeID:     uc.scopeID,
		Role:        role,
		DisplayName: name,
	}, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &Session{
		UserID:      userID,
		Email:       email,
		DisplayName: name,
		Role:        role,
		ScopeID:     uc.scopeID,
		Token:       token,
		ExpiresAt:   exp,
		Local:       local,
	}, nil
}

// ToUserResponse DTO de salida sin password.
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
