package executor

import (
	"context"
	"fmt"

	"github.com/feral-file/carbon-marketplace/internal/account"
	"github.com/feral-file/carbon-marketplace/internal/api/shared/dto"
	"github.com/feral-file/carbon-marketplace/internal/blob"
	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/notifier"
	"github.com/feral-file/carbon-marketplace/internal/plantation"
	"github.com/feral-file/carbon-marketplace/internal/settlement"
	"github.com/feral-file/carbon-marketplace/internal/store"
	"github.com/feral-file/carbon-marketplace/internal/verification"
)

// Executor maps API requests onto the marketplace workflows and their results onto DTOs.
// Errors are returned as *domain.Error for the transport to translate.
//
//go:generate mockgen -source=executor.go -destination=../../../mocks/api_executor.go -package=mocks -mock_names=Executor=MockAPIExecutor
type Executor interface {
	Register(ctx context.Context, kind domain.AccountKind, req dto.RegisterRequest) (*dto.RegisterResponse, error)
	VerifyEmail(ctx context.Context, kind domain.AccountKind, req dto.VerifyCodeRequest) (*dto.MessageResponse, error)
	ResendVerification(ctx context.Context, kind domain.AccountKind, req dto.ResendVerificationRequest) (*dto.MessageResponse, error)
	Login(ctx context.Context, kind domain.AccountKind, req dto.LoginRequest) (*dto.LoginResponse, error)
	VerifyTwoFactor(ctx context.Context, kind domain.AccountKind, req dto.VerifyCodeRequest) (*dto.SessionResponse, error)
	GoogleLogin(ctx context.Context, kind domain.AccountKind, req dto.GoogleLoginRequest) (*dto.LoginResponse, error)

	CreatePlantation(ctx context.Context, farmerID uint64, req dto.CreatePlantationRequest, image *blob.Upload) (*dto.CreatedResponse, error)
	ListFarmerPlantations(ctx context.Context, farmerID uint64) ([]dto.Plantation, error)
	UpdateNDVI(ctx context.Context, farmerID, plantationID uint64, req dto.UpdateNDVIRequest) (*dto.NDVIResponse, error)
	GetFarmerCredits(ctx context.Context, farmerID uint64) (*dto.CreditsResponse, error)

	ListMarketplace(ctx context.Context) ([]dto.Plantation, error)
	Buy(ctx context.Context, businessID uint64, req dto.BuyRequest) (*dto.PurchaseResponse, error)
	ListPurchases(ctx context.Context, businessID uint64) ([]dto.Purchase, error)

	SetVerification(ctx context.Context, requester domain.Requester, plantationID uint64, req dto.VerificationRequest) (*dto.VerificationResponse, error)
	ListFarmers(ctx context.Context) ([]dto.Farmer, error)
	ListBusinesses(ctx context.Context) ([]dto.Business, error)
	ListPlantations(ctx context.Context, status *domain.VerificationStatus) ([]dto.Plantation, error)
	ListAllPurchases(ctx context.Context) ([]dto.Purchase, error)

	GetStats(ctx context.Context) (*dto.StatsResponse, error)
	SubmitContact(ctx context.Context, req dto.ContactRequest) (*dto.MessageResponse, error)
}

// Services bundles the workflows the executor delegates to
type Services struct {
	Accounts     account.Service
	Plantations  plantation.Ledger
	Verification verification.Workflow
	Settlement   settlement.Settlement
	Notifier     notifier.Notifier
	// ContactRecipient receives contact form submissions
	ContactRecipient string
}

type executor struct {
	store    store.Store
	services Services
}

func NewExecutor(st store.Store, services Services) Executor {
	return &executor{store: st, services: services}
}

func (e *executor) Register(ctx context.Context, kind domain.AccountKind, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	result, err := e.services.Accounts.Register(ctx, kind, account.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	message := "Registration successful. Check your email for verification code."
	if !result.VerificationEmailSent {
		message = "Registration successful but the verification email could not be sent. Please request a new code."
	}

	return &dto.RegisterResponse{
		Message:               message,
		UserID:                result.ID,
		RequiresVerification:  true,
		VerificationEmailSent: result.VerificationEmailSent,
	}, nil
}

func (e *executor) VerifyEmail(ctx context.Context, kind domain.AccountKind, req dto.VerifyCodeRequest) (*dto.MessageResponse, error) {
	already, err := e.services.Accounts.VerifyEmail(ctx, kind, req.UserID, req.Code)
	if err != nil {
		return nil, err
	}
	if already {
		return &dto.MessageResponse{Message: "Email already verified"}, nil
	}
	return &dto.MessageResponse{Message: "Email verified successfully"}, nil
}

func (e *executor) ResendVerification(ctx context.Context, kind domain.AccountKind, req dto.ResendVerificationRequest) (*dto.MessageResponse, error) {
	sent, err := e.services.Accounts.ResendVerification(ctx, kind, req.Email)
	if err != nil {
		return nil, err
	}
	if !sent {
		return &dto.MessageResponse{Message: "Email already verified"}, nil
	}
	return &dto.MessageResponse{Message: "Verification code sent to your email"}, nil
}

func (e *executor) Login(ctx context.Context, kind domain.AccountKind, req dto.LoginRequest) (*dto.LoginResponse, error) {
	result, err := e.services.Accounts.Login(ctx, kind, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	return mapLoginResult(result), nil
}

func (e *executor) VerifyTwoFactor(ctx context.Context, kind domain.AccountKind, req dto.VerifyCodeRequest) (*dto.SessionResponse, error) {
	session, err := e.services.Accounts.VerifyTwoFactor(ctx, kind, req.UserID, req.Code)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{
		Message:   "Login successful",
		UserID:    session.UserID,
		UserType:  session.Kind,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (e *executor) GoogleLogin(ctx context.Context, kind domain.AccountKind, req dto.GoogleLoginRequest) (*dto.LoginResponse, error) {
	result, err := e.services.Accounts.FederatedLogin(ctx, kind, account.FederatedIdentity{
		ExternalID: req.GoogleID,
		Email:      req.Email,
		Name:       req.Name,
	})
	if err != nil {
		return nil, err
	}
	return mapLoginResult(result), nil
}

func mapLoginResult(result *account.LoginResult) *dto.LoginResponse {
	return &dto.LoginResponse{
		Message:     "2FA code sent to your email",
		UserID:      result.UserID,
		Requires2FA: true,
		IsNewUser:   result.IsNewUser,
	}
}

func (e *executor) CreatePlantation(ctx context.Context, farmerID uint64, req dto.CreatePlantationRequest, image *blob.Upload) (*dto.CreatedResponse, error) {
	if req.Latitude == nil || req.Longitude == nil || req.Area == nil {
		return nil, domain.NewValidationError("latitude, longitude and area are required")
	}

	p, err := e.services.Plantations.Create(ctx, plantation.CreateInput{
		FarmerID:  farmerID,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		TreeType:  req.TreeType,
		Area:      *req.Area,
		NDVI:      req.NDVI,
		Image:     image,
	})
	if err != nil {
		return nil, err
	}

	return &dto.CreatedResponse{Message: "Plantation added successfully", ID: p.ID}, nil
}

func (e *executor) ListFarmerPlantations(ctx context.Context, farmerID uint64) ([]dto.Plantation, error) {
	plantations, err := e.services.Plantations.ListByFarmer(ctx, farmerID)
	if err != nil {
		return nil, err
	}
	return dto.MapPlantationsToDTO(plantations), nil
}

func (e *executor) UpdateNDVI(ctx context.Context, farmerID, plantationID uint64, req dto.UpdateNDVIRequest) (*dto.NDVIResponse, error) {
	if req.NDVI == nil {
		return nil, domain.NewValidationError("NDVI value required")
	}

	p, err := e.services.Plantations.UpdateNDVI(ctx, plantationID, *req.NDVI, farmerID)
	if err != nil {
		return nil, err
	}

	return &dto.NDVIResponse{
		Message: "NDVI updated and credits calculated",
		NDVI:    p.NDVI,
		Credits: p.Credits,
	}, nil
}

func (e *executor) GetFarmerCredits(ctx context.Context, farmerID uint64) (*dto.CreditsResponse, error) {
	farmer, err := e.store.GetFarmer(ctx, farmerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get farmer: %w", err)
	}
	if farmer == nil {
		return nil, domain.NewNotFoundError("farmer not found")
	}
	return &dto.CreditsResponse{TotalCredits: farmer.TotalCredits}, nil
}

func (e *executor) ListMarketplace(ctx context.Context) ([]dto.Plantation, error) {
	plantations, err := e.services.Plantations.ListVerified(ctx)
	if err != nil {
		return nil, err
	}
	return dto.MapPlantationsToDTO(plantations), nil
}

func (e *executor) Buy(ctx context.Context, businessID uint64, req dto.BuyRequest) (*dto.PurchaseResponse, error) {
	if req.Credits == nil {
		return nil, domain.NewValidationError("plantation ID and credits required")
	}

	purchase, err := e.services.Settlement.Buy(ctx, businessID, req.PlantationID, *req.Credits)
	if err != nil {
		return nil, err
	}

	return &dto.PurchaseResponse{
		Message:  "Purchase successful",
		Purchase: dto.MapPurchaseToDTO(*purchase),
	}, nil
}

func (e *executor) ListPurchases(ctx context.Context, businessID uint64) ([]dto.Purchase, error) {
	purchases, err := e.services.Settlement.ListPurchases(ctx, businessID)
	if err != nil {
		return nil, err
	}
	return dto.MapPurchasesToDTO(purchases), nil
}

func (e *executor) SetVerification(ctx context.Context, requester domain.Requester, plantationID uint64, req dto.VerificationRequest) (*dto.VerificationResponse, error) {
	status := domain.ParseVerificationStatus(req.Status)
	p, err := e.services.Verification.SetStatus(ctx, plantationID, status, requester.Role)
	if err != nil {
		return nil, err
	}

	return &dto.VerificationResponse{
		Message: fmt.Sprintf("Plantation %s", p.VerificationStatus),
		Status:  p.VerificationStatus,
		Credits: p.Credits,
	}, nil
}

func (e *executor) ListFarmers(ctx context.Context) ([]dto.Farmer, error) {
	farmers, err := e.store.ListFarmers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list farmers: %w", err)
	}
	return dto.MapFarmersToDTO(farmers), nil
}

func (e *executor) ListBusinesses(ctx context.Context) ([]dto.Business, error) {
	businesses, err := e.store.ListBusinesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	return dto.MapBusinessesToDTO(businesses), nil
}

func (e *executor) ListPlantations(ctx context.Context, status *domain.VerificationStatus) ([]dto.Plantation, error) {
	if status != nil && !status.IsValid() {
		return nil, domain.NewValidationError("invalid status filter %q", *status)
	}

	plantations, err := e.services.Plantations.List(ctx, store.PlantationFilter{Status: status})
	if err != nil {
		return nil, err
	}
	return dto.MapPlantationsToDTO(plantations), nil
}

func (e *executor) ListAllPurchases(ctx context.Context) ([]dto.Purchase, error) {
	purchases, err := e.services.Settlement.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return dto.MapPurchasesToDTO(purchases), nil
}

func (e *executor) GetStats(ctx context.Context) (*dto.StatsResponse, error) {
	stats, err := e.store.GetMarketplaceStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get marketplace stats: %w", err)
	}
	return &dto.StatsResponse{
		ActivePlantations:  stats.ActivePlantations,
		TotalCreditsTraded: stats.TotalCreditsTraded,
		VerifiedFarmers:    stats.VerifiedFarmers,
	}, nil
}

func (e *executor) SubmitContact(ctx context.Context, req dto.ContactRequest) (*dto.MessageResponse, error) {
	email := account.NormalizeEmail(req.Email)
	if err := account.ValidateEmail(email); err != nil {
		return nil, err
	}
	if e.services.ContactRecipient == "" {
		return nil, domain.NewDependencyError("contact mailbox", fmt.Errorf("no contact recipient configured"))
	}

	msg := notifier.ContactEmail(e.services.ContactRecipient, req.Name, email, req.Message)
	if err := e.services.Notifier.Send(ctx, msg); err != nil {
		return nil, domain.NewDependencyError("notifier", err)
	}

	return &dto.MessageResponse{Message: "Message sent successfully"}, nil
}
