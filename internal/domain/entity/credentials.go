package entity

// Credentials credenciales cacheadas para re-autenticar al volver a modo online sin pedirlas de nuevo.
// El perfil del último login exitoso permite abrir una sesión local sin red.
type Credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	UserID      string `json:"user_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
}
