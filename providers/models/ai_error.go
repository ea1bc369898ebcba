package models

// AIError is the error envelope AI backends return in non-200 responses.
type AIError struct {
	Error AIErrorDetail `json:"error"`
}

type AIErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}
