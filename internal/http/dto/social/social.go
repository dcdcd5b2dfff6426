// Package social contiene DTOs para los flujos OAuth con providers externos.
package social

// AuthorizeResponse es la respuesta del paso authorize de Google.
type AuthorizeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// SupabaseAuthorizeResponse agrega el provider delegado elegido.
type SupabaseAuthorizeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
	Provider         string `json:"provider"`
}

// CallbackRequest representa el callback del authorization-code flow.
// Nonce llega de algunos frontends pero se ignora: el nonce que cuenta es el
// guardado server-side junto al state.
type CallbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
	Nonce string `json:"nonce,omitempty"`
}

// CredentialsRequest representa signup/signin delegados en Supabase.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
