package server

// AuthSignupRequest is the signup payload.
type AuthSignupRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// TokenResponse carries the issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// ChatRequest is the question payload. Mode is optional: empty means ask,
// unless the message equals the summarize sentinel exactly.
type ChatRequest struct {
	Message string `json:"message" form:"message"`
	Mode    string `json:"mode" form:"mode"`
}

// ChatResponse carries the synthesized answer.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// HTTPError is the unified error body.
type HTTPError struct {
	Error string `json:"error"`
}
