// Входные/выходные модели REST API wallet-бэкенда
package models

type SignUpRequest struct {
	IDToken string `json:"idToken"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse — ответ POST /auth/refresh-auth.
type RefreshResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

// APIError — тело ошибки бэкенда.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
}
