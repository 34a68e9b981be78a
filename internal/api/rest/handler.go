package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/carbon-marketplace/internal/api/middleware"
	"github.com/feral-file/carbon-marketplace/internal/api/shared/constants"
	"github.com/feral-file/carbon-marketplace/internal/api/shared/dto"
	"github.com/feral-file/carbon-marketplace/internal/api/shared/executor"
	"github.com/feral-file/carbon-marketplace/internal/blob"
	"github.com/feral-file/carbon-marketplace/internal/domain"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// Register creates a farmer or business account
	// POST /api/v1/{farmer,business}/register
	Register(kind domain.AccountKind) gin.HandlerFunc
	// POST /api/v1/{farmer,business}/verify-email
	VerifyEmail(kind domain.AccountKind) gin.HandlerFunc
	// POST /api/v1/{farmer,business}/resend-verification
	ResendVerification(kind domain.AccountKind) gin.HandlerFunc
	// Login checks the password and sends a 2FA code
	// POST /api/v1/{farmer,business}/login
	Login(kind domain.AccountKind) gin.HandlerFunc
	// VerifyTwoFactor exchanges the 2FA code for a bearer token
	// POST /api/v1/{farmer,business}/verify-2fa
	VerifyTwoFactor(kind domain.AccountKind) gin.HandlerFunc
	// POST /api/v1/{farmer,business}/google-login
	GoogleLogin(kind domain.AccountKind) gin.HandlerFunc
	// Logout is stateless; clients drop their token
	// POST /api/v1/{farmer,business}/logout
	Logout(c *gin.Context)

	// CreatePlantation registers a plantation from a multipart form with an optional image
	// POST /api/v1/farmer/plantations
	CreatePlantation(c *gin.Context)
	// GET /api/v1/farmer/plantations
	ListFarmerPlantations(c *gin.Context)
	// POST /api/v1/farmer/plantations/:id/ndvi
	UpdateNDVI(c *gin.Context)
	// GET /api/v1/farmer/credits
	GetFarmerCredits(c *gin.Context)

	// ListMarketplace lists verified plantations
	// GET /api/v1/business/plantations
	ListMarketplace(c *gin.Context)
	// POST /api/v1/business/buy
	Buy(c *gin.Context)
	// GET /api/v1/business/purchases
	ListPurchases(c *gin.Context)

	// POST /api/v1/admin/plantations/:id/verification
	SetVerification(c *gin.Context)
	// GET /api/v1/admin/farmers
	ListFarmers(c *gin.Context)
	// GET /api/v1/admin/businesses
	ListBusinesses(c *gin.Context)
	// GET /api/v1/admin/plantations?status=<status>
	ListPlantations(c *gin.Context)
	// GET /api/v1/admin/purchases
	ListAllPurchases(c *gin.Context)

	// GET /api/v1/stats
	GetStats(c *gin.Context)
	// POST /api/v1/contact
	Contact(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// Config holds handler settings
type Config struct {
	// Debug exposes internal error causes in responses
	Debug bool
	// MaxImageSize bounds plantation image uploads in bytes
	MaxImageSize int64
}

// handler implements the Handler interface
type handler struct {
	debug        bool
	maxImageSize int64
	executor     executor.Executor
}

// NewHandler creates a new REST API handler using the shared executor
func NewHandler(cfg Config, exec executor.Executor) Handler {
	return &handler{
		debug:        cfg.Debug,
		maxImageSize: cfg.MaxImageSize,
		executor:     exec,
	}
}

func (h *handler) Register(kind domain.AccountKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, "username, email, and password are required")
			return
		}

		resp, err := h.executor.Register(c.Request.Context(), kind, req)
		if err != nil {
			h.respondDomainError(c, err, zap.String("kind", string(kind)))
			return
		}

		c.JSON(http.StatusCreated, resp)
	}
}

func (h *handler) VerifyEmail(kind domain.AccountKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.VerifyCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, "user ID and verification code are required")
			return
		}

		resp, err := h.executor.VerifyEmail(c.Request.Context(), kind, req)
		if err != nil {
			h.respondDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func (h *handler) ResendVerification(kind domain.AccountKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ResendVerificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, "email is required")
			return
		}

		resp, err := h.executor.ResendVerification(c.Request.Context(), kind, req)
		if err != nil {
			h.respondDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func (h *handler) Login(kind domain.AccountKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, "username and password are required")
			return
		}

		resp, err := h.executor.Login(c.Request.Context(), kind, req)
		if err != nil {
			h.respondDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func (h *handler) VerifyTwoFactor(kind domain.AccountKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.VerifyCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, "user ID and code are required")
			return
		}

		resp, err := h.executor.VerifyTwoFactor(c.Request.Context(), kind, req)
		if err != nil {
			h.respondDomainError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func (h *handler) GoogleLogin(kind domain.AccountKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.GoogleLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, "Google ID and email are required")
			return
		}

		resp, err := h.executor.GoogleLogin(c.Request.Context(), kind, req)
		if err != nil {
			h.respondDomainError(c, err)
			return
		}

		status := http.StatusOK
		if resp.IsNewUser {
			status = http.StatusCreated
		}
		c.JSON(status, resp)
	}
}

func (h *handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Logout successful"})
}

func (h *handler) CreatePlantation(c *gin.Context) {
	requester, ok := middleware.GetRequester(c)
	if !ok {
		h.respondDomainError(c, domain.NewUnauthenticatedError("authentication required"))
		return
	}

	var req dto.CreatePlantationRequest
	if err := c.ShouldBind(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("invalid form data: %v", err))
		return
	}

	image, err := h.readImage(c)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	resp, err := h.executor.CreatePlantation(c.Request.Context(), requester.ID, req, image)
	if err != nil {
		h.respondDomainError(c, err, zap.Uint64("farmer_id", requester.ID))
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// readImage returns the optional uploaded image, or nil when the form carries none
func (h *handler) readImage(c *gin.Context) (*blob.Upload, error) {
	header, err := c.FormFile(constants.IMAGE_FORM_FIELD)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewValidationError("invalid image upload: %v", err)
	}
	if h.maxImageSize > 0 && header.Size > h.maxImageSize {
		return nil, domain.NewValidationError("image exceeds %d bytes", h.maxImageSize)
	}

	file, err := header.Open()
	if err != nil {
		return nil, domain.NewValidationError("invalid image upload: %v", err)
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	return &blob.Upload{Filename: header.Filename, Data: data}, nil
}

func (h *handler) ListFarmerPlantations(c *gin.Context) {
	requester, _ := middleware.GetRequester(c)

	resp, err := h.executor.ListFarmerPlantations(c.Request.Context(), requester.ID)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) UpdateNDVI(c *gin.Context) {
	requester, _ := middleware.GetRequester(c)

	plantationID, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateNDVIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "NDVI value required")
		return
	}

	resp, err := h.executor.UpdateNDVI(c.Request.Context(), requester.ID, plantationID, req)
	if err != nil {
		h.respondDomainError(c, err, zap.Uint64("plantation_id", plantationID))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) GetFarmerCredits(c *gin.Context) {
	requester, _ := middleware.GetRequester(c)

	resp, err := h.executor.GetFarmerCredits(c.Request.Context(), requester.ID)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) ListMarketplace(c *gin.Context) {
	resp, err := h.executor.ListMarketplace(c.Request.Context())
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) Buy(c *gin.Context) {
	requester, _ := middleware.GetRequester(c)

	var req dto.BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "plantation ID and credits required")
		return
	}

	resp, err := h.executor.Buy(c.Request.Context(), requester.ID, req)
	if err != nil {
		h.respondDomainError(c, err,
			zap.Uint64("business_id", requester.ID),
			zap.Uint64("plantation_id", req.PlantationID))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) ListPurchases(c *gin.Context) {
	requester, _ := middleware.GetRequester(c)

	resp, err := h.executor.ListPurchases(c.Request.Context(), requester.ID)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) SetVerification(c *gin.Context) {
	requester, _ := middleware.GetRequester(c)

	plantationID, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "status is required")
		return
	}

	resp, err := h.executor.SetVerification(c.Request.Context(), requester, plantationID, req)
	if err != nil {
		h.respondDomainError(c, err, zap.Uint64("plantation_id", plantationID))
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) ListFarmers(c *gin.Context) {
	resp, err := h.executor.ListFarmers(c.Request.Context())
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) ListBusinesses(c *gin.Context) {
	resp, err := h.executor.ListBusinesses(c.Request.Context())
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) ListPlantations(c *gin.Context) {
	var status *domain.VerificationStatus
	if raw, ok := c.GetQuery("status"); ok {
		parsed := domain.ParseVerificationStatus(raw)
		status = &parsed
	}

	resp, err := h.executor.ListPlantations(c.Request.Context(), status)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) ListAllPurchases(c *gin.Context) {
	resp, err := h.executor.ListAllPurchases(c.Request.Context())
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) GetStats(c *gin.Context) {
	resp, err := h.executor.GetStats(c.Request.Context())
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) Contact(c *gin.Context) {
	var req dto.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "name, a valid email, and message are required")
		return
	}

	resp, err := h.executor.SubmitContact(c.Request.Context(), req)
	if err != nil {
		h.respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:  "ok",
		Service: constants.SERVICE_NAME,
	})
}

// parseID reads the :id path parameter, responding 400 when it is not a positive integer
func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondBadRequest(c, "Invalid ID", c.Param("id"))
		return 0, false
	}
	return id, true
}
