package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(baseLog *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		log:         baseLog.With("handler", "AuthHandler"),
		authService: authService,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	user, err := h.authService.RegisterUser(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	token, err := h.authService.LoginUser(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"access_token": token,
		"expires_in":   int(h.authService.GetAccessTTL().Seconds()),
	})
}
