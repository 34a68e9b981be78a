package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/carbon-marketplace/internal/account"
	apierrors "github.com/feral-file/carbon-marketplace/internal/api/shared/errors"
	"github.com/feral-file/carbon-marketplace/internal/domain"
	"github.com/feral-file/carbon-marketplace/internal/logger"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	AUTH_TYPE_KEY contextKey = "auth_type"
	REQUESTER_KEY contextKey = "requester"
)

const (
	AUTH_TYPE_BEARER = "bearer"
	AUTH_TYPE_APIKEY = "apikey"
)

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// Tokens validates bearer tokens issued to farmers and businesses
	Tokens account.TokenIssuer
	// APIKeys grant the admin role
	APIKeys []string
}

// AuthResult holds the result of authentication
type AuthResult struct {
	Success   bool
	AuthType  string
	Requester domain.Requester
	Error     error
}

// Authenticate validates the Authorization header and returns the authentication result
func Authenticate(authHeader string, cfg AuthConfig) AuthResult {
	result := AuthResult{}

	if authHeader == "" {
		result.Error = errors.New("missing Authorization header")
		return result
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[1] == "" {
		result.Error = errors.New("invalid Authorization header format")
		return result
	}

	authType := strings.ToLower(parts[0])
	credentials := strings.TrimSpace(parts[1])

	switch authType {
	case AUTH_TYPE_BEARER:
		if cfg.Tokens == nil {
			result.Error = errors.New("bearer tokens not configured")
			return result
		}
		requester, err := cfg.Tokens.Parse(credentials)
		if err != nil {
			result.Error = err
			return result
		}
		result.Requester = requester

	case AUTH_TYPE_APIKEY:
		if err := validateAPIKey(credentials, cfg.APIKeys); err != nil {
			result.Error = err
			return result
		}
		result.Requester = domain.Requester{Role: domain.RoleAdmin}

	default:
		result.Error = fmt.Errorf("unsupported authorization type: %s", authType)
		return result
	}

	result.Success = true
	result.AuthType = authType
	return result
}

// Auth returns a gin middleware that authenticates the caller and requires one of roles
func Auth(cfg AuthConfig, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := Authenticate(c.GetHeader("Authorization"), cfg)
		if !result.Success {
			logger.WarnCtx(c.Request.Context(), "Authentication failed",
				zap.Error(result.Error),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			abortWithError(c, apierrors.NewUnauthorizedError("Authentication required", result.Error.Error()))
			return
		}

		if !hasRole(result.Requester.Role, roles) {
			abortWithError(c, apierrors.NewForbiddenError("Access denied"))
			return
		}

		c.Set(AUTH_TYPE_KEY, result.AuthType)
		c.Set(REQUESTER_KEY, result.Requester)
		c.Request = c.Request.WithContext(
			logger.WithActor(c.Request.Context(), string(result.Requester.Role), result.Requester.ID))

		logger.DebugCtx(c.Request.Context(), "Authentication successful",
			zap.String("path", c.Request.URL.Path),
			zap.String("auth_type", result.AuthType),
			zap.String("role", string(result.Requester.Role)),
			zap.Uint64("subject", result.Requester.ID),
		)

		c.Next()
	}
}

// GetRequester returns the caller stored by Auth
func GetRequester(c *gin.Context) (domain.Requester, bool) {
	value, ok := c.Get(REQUESTER_KEY)
	if !ok {
		return domain.Requester{}, false
	}
	requester, ok := value.(domain.Requester)
	return requester, ok
}

func hasRole(role domain.Role, roles []domain.Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// validateAPIKey compares in constant time against every configured key
func validateAPIKey(apiKey string, validKeys []string) error {
	configured := false
	for _, key := range validKeys {
		if key == "" {
			continue
		}
		configured = true
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			return nil
		}
	}

	if !configured {
		return errors.New("no API keys configured")
	}
	return errors.New("invalid API key")
}
