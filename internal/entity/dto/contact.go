package dto

type SubscribeRequest struct {
	Email string `json:"email" form:"submail" binding:"required,email"`
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}
