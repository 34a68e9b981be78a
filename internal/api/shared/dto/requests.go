package dto

// RegisterRequest is the body of POST /{farmer,business}/register
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// VerifyCodeRequest is the body of verify-email and verify-2fa
type VerifyCodeRequest struct {
	UserID uint64 `json:"user_id" binding:"required"`
	Code   string `json:"code" binding:"required"`
}

// ResendVerificationRequest is the body of POST /{farmer,business}/resend-verification
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required"`
}

// LoginRequest is the body of POST /{farmer,business}/login
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// GoogleLoginRequest is the body of POST /{farmer,business}/google-login
type GoogleLoginRequest struct {
	GoogleID string `json:"google_id" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
}

// CreatePlantationRequest holds the multipart form fields of POST /farmer/plantations
type CreatePlantationRequest struct {
	Latitude  *float64 `form:"latitude" binding:"required"`
	Longitude *float64 `form:"longitude" binding:"required"`
	TreeType  string   `form:"tree_type" binding:"required"`
	Area      *float64 `form:"area" binding:"required"`
	NDVI      *float64 `form:"ndvi"`
}

// UpdateNDVIRequest is the body of POST /farmer/plantations/:id/ndvi
type UpdateNDVIRequest struct {
	NDVI *float64 `json:"ndvi" binding:"required"`
}

// BuyRequest is the body of POST /business/buy
type BuyRequest struct {
	PlantationID uint64   `json:"plantation_id" binding:"required"`
	Credits      *float64 `json:"credits" binding:"required"`
}

// VerificationRequest is the body of POST /admin/plantations/:id/verification
type VerificationRequest struct {
	Status string `json:"status" binding:"required"`
}

// ContactRequest is the body of POST /contact
type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required,max=5000"`
}
