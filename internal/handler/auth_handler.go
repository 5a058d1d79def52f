package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"user-management-svc/internal/cache"
	"user-management-svc/internal/config"
	"user-management-svc/internal/middleware"
	"user-management-svc/internal/models/request"
	"user-management-svc/internal/models/response"
	"user-management-svc/internal/service"
	"user-management-svc/pkg/logger"
	"user-management-svc/pkg/security"
	"user-management-svc/pkg/utils"
)

// AuthHandler handles session HTTP requests
type AuthHandler struct {
	userService service.UserService
	tokens      *security.TokenManager
	blacklist   cache.TokenBlacklist
	cookie      config.JWTConfig
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	userService service.UserService,
	tokens *security.TokenManager,
	blacklist cache.TokenBlacklist,
	cookie config.JWTConfig,
	logger *logger.Logger,
) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		blacklist:   blacklist,
		cookie:      cookie,
		logger:      logger,
	}
}

// Login handles POST /login
// @Summary Log in
// @Description Authenticate with a username or email and set the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Credentials"
// @Success 200 {object} utils.APIResponse{data=response.LoginResponse} "Logged in successfully"
// @Failure 400 {object} utils.APIResponse "Invalid request body"
// @Failure 401 {object} utils.APIResponse "Invalid credentials"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequestResponse(c, "Login and password are required", err)
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.logger.WithField("login", req.Login).Warn("Failed login attempt")
			utils.UnauthorizedResponse(c, "Invalid credentials")
			return
		}
		h.logger.WithError(err).Error("Failed to authenticate user")
		utils.InternalServerErrorResponse(c, "Failed to log in", err)
		return
	}

	token, expiresAt, err := h.tokens.Generate(user.ID, user.Username)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("Failed to issue token")
		utils.InternalServerErrorResponse(c, "Failed to log in", err)
		return
	}

	h.setCookie(c, token, int(time.Until(expiresAt).Seconds()))

	h.logger.WithField("user_id", user.ID).Info("User logged in")
	utils.SuccessResponse(c, "Logged in successfully", response.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      h.userService.Present(user),
	})
}

// Logout handles POST /logout
// @Summary Log out
// @Description Revoke the current session token and clear the cookie
// @Tags auth
// @Produce json
// @Success 200 {object} utils.APIResponse "Logged out successfully"
// @Failure 401 {object} utils.APIResponse "Unauthorized"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Security CookieAuth
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := c.Get(middleware.ClaimsKey)
	if !ok {
		utils.UnauthorizedResponse(c, "Unauthorized")
		return
	}
	userClaims := claims.(*security.UserClaims)

	if err := h.blacklist.Revoke(c.Request.Context(), userClaims.ID, userClaims.ExpiresAt.Time); err != nil {
		h.logger.WithError(err).WithField("user_id", userClaims.UserID).Error("Failed to revoke token")
		utils.InternalServerErrorResponse(c, "Failed to log out", err)
		return
	}

	h.setCookie(c, "", -1)

	h.logger.WithField("user_id", userClaims.UserID).Info("User logged out")
	utils.SuccessResponse(c, "Logged out successfully", nil)
}

// Me handles GET /me
// @Summary Current user
// @Description Get the authenticated user
// @Tags auth
// @Produce json
// @Success 200 {object} utils.APIResponse{data=response.UserResponse} "User retrieved successfully"
// @Failure 401 {object} utils.APIResponse "Unauthorized"
// @Security CookieAuth
// @Router /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.userService.Find(c.Request.Context(), c.GetUint(middleware.UserIDKey))
	if err != nil {
		utils.UnauthorizedResponse(c, "Unauthorized")
		return
	}

	utils.SuccessResponse(c, "User retrieved successfully", h.userService.Present(user))
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.CookieName, value, maxAge, "/", "", h.cookie.CookieSecure, true)
}
