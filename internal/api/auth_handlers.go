package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tcstacks/crosscsp/internal/auth"
	"github.com/tcstacks/crosscsp/internal/middleware"
)

// AuthHandlers issues and refreshes bearer tokens for service clients
// holding a shared API key (§4.12). There are no end-user accounts in
// this domain: every caller is a client service identified by clientId,
// not a signed-in human.
type AuthHandlers struct {
	authService *auth.Service
	clientID    string
	keyHash     string
}

func NewAuthHandlers(authService *auth.Service, clientID, keyHash string) *AuthHandlers {
	return &AuthHandlers{authService: authService, clientID: clientID, keyHash: keyHash}
}

// IssueTokenRequest is the body of POST /api/auth/token.
type IssueTokenRequest struct {
	ClientID string `json:"clientId" binding:"required"`
	APIKey   string `json:"apiKey" binding:"required"`
}

// TokenResponse carries a bearer token back to the caller.
type TokenResponse struct {
	Token string `json:"token"`
}

// IssueToken exchanges a client's API key for a short-lived bearer token.
func (h *AuthHandlers) IssueToken(c *gin.Context) {
	var req IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ClientID != h.clientID || !h.authService.CheckAPIKey(req.APIKey, h.keyHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid client credentials"})
		return
	}

	token, err := h.authService.GenerateToken(req.ClientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// RefreshToken extends the caller's session without requiring the API
// key again, using the identity RequireAuth already attached to the
// request context.
func (h *AuthHandlers) RefreshToken(c *gin.Context) {
	claims := middleware.GetAuthUser(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	token, err := h.authService.RefreshToken(claims)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}
