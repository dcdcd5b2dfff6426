// Package auth contiene DTOs para los endpoints de autenticación local.
package auth

// CreateUserRequest representa el alta de usuario por username/password.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUserResponse confirma el alta.
type CreateUserResponse struct {
	Message string `json:"message"` // "User created successfully"
}

// TokenResponse representa un access token emitido.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"` // "bearer"
}

// UserResponse representa el perfil del usuario autenticado.
type UserResponse struct {
	Username   string `json:"username"`
	ID         string `json:"id"`
	Email      string `json:"email"`
	AuthMethod string `json:"auth_method"`
}
