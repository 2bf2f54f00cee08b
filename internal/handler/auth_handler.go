package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agrimandi/internal/middleware"
	"agrimandi/internal/model"
	"agrimandi/internal/service"
	"agrimandi/pkg/response"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes binds the auth endpoints to the gin RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
	}

	router.GET("/api/me", middleware.RequireRole(model.RoleFarmer, model.RoleBuyer, model.RoleTransporter), h.GetMe)
}

// Register creates a new marketplace account with a role profile
// @Summary      Register user
// @Description  Registers a farmer, buyer, or transporter with their role profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Register Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// Login authenticates a user and sets token cookies
// @Summary      Login user
// @Description  Authenticates a user by email and password, returning a token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenPair}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}

	middleware.SetTokenCookies(c, tokens.AccessToken, tokens.RefreshToken)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// Refresh rotates the refresh token and issues a new token pair
// @Summary      Refresh token
// @Description  Issues a new access and refresh token pair using a valid refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      object  false  "Refresh Token {refresh_token}"
// @Success      200      {object}  response.Response{data=service.TokenPair}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	// Cookie first, body fallback
	refreshToken, cookieErr := c.Cookie("refresh_token")
	if cookieErr != nil || refreshToken == "" {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
			return
		}
		refreshToken = req.RefreshToken
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		respondErr(c, err)
		return
	}

	middleware.SetTokenCookies(c, tokens.AccessToken, tokens.RefreshToken)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokens))
}

// Logout invalidates the refresh token and clears auth cookies
func (h *AuthHandler) Logout(c *gin.Context) {
	if refreshToken, err := c.Cookie("refresh_token"); err == nil && refreshToken != "" {
		_ = h.authService.Logout(c.Request.Context(), refreshToken)
	}
	middleware.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.SuccessMsg(http.StatusOK, "Logged out", nil))
}

// GetMe returns the currently authenticated user
// @Summary      Get current user
// @Description  Get the currently authenticated user's profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, err := h.authService.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}
