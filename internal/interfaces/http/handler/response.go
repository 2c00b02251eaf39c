package handler

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message" example:"If the account exists, a code has been sent"`
}
