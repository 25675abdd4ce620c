package auth

// HttpResp represents the standard HTTP response structure.
// swagger:model
type HttpResp struct {
	Status  string      `json:"status" example:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message" example:"Operation completed successfully"`
}

// ProviderResponse describes the configured provider on /auth/providers.
type ProviderResponse struct {
	Name        string   `json:"name"`
	Environment string   `json:"environment"`
	BaseURL     string   `json:"base_url"`
	Scopes      []string `json:"scopes"`
	Stateless   bool     `json:"stateless"`
}
