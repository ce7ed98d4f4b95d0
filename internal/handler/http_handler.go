package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lhwang/riverchat/internal/domain"
	"github.com/lhwang/riverchat/internal/middleware"
	"github.com/lhwang/riverchat/internal/repository"
	"github.com/lhwang/riverchat/internal/service"
	"github.com/lhwang/riverchat/pkg/log"
	"github.com/lhwang/riverchat/pkg/response"
)

// Handler handles HTTP requests for accounts and channels.
type Handler struct {
	userService    service.UserService
	channelService service.ChannelService
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler creates a new HTTP handler.
func NewHandler(userService service.UserService, channelService service.ChannelService, authMiddleware *middleware.AuthMiddleware) *Handler {
	return &Handler{
		userService:    userService,
		channelService: channelService,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
			auth.POST("/refresh", h.RefreshToken)
			auth.POST("/logout", h.authMiddleware.RequireAuth(), h.Logout)
		}

		users := api.Group("/users")
		users.Use(h.authMiddleware.RequireAuth())
		{
			users.GET("/me", h.GetMe)
		}

		channels := api.Group("/channels")
		channels.Use(h.authMiddleware.RequireAuth())
		{
			channels.POST("", h.CreateChannel)
			channels.GET("", h.ListChannels)
			channels.GET("/:id", h.GetChannel)
			channels.GET("/:id/messages", h.ChannelHistory)
		}
	}
}

// Register handles user registration.
func (h *Handler) Register(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid register request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.userService.Register(ctx, &req)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			response.Conflict(c, "email already exists")
			return
		}
		if errors.Is(err, repository.ErrUsernameExists) {
			response.Conflict(c, "username already exists")
			return
		}
		l.Error().Err(err).Msg("register failed")
		response.InternalError(c, "failed to register user")
		return
	}

	response.Created(c, result)
}

// Login handles user login.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid login request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.userService.Login(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid email or password")
			return
		}
		l.Error().Err(err).Msg("login failed")
		response.InternalError(c, "failed to login")
		return
	}

	response.Success(c, result)
}

// RefreshToken handles token refresh.
func (h *Handler) RefreshToken(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid refresh token request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.userService.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		l.Warn().Err(err).Msg("refresh token failed")
		response.Unauthorized(c, "invalid or expired refresh token")
		return
	}

	response.Success(c, result)
}

// Logout handles user logout.
func (h *Handler) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.userService.Logout(ctx, userID); err != nil {
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("logout failed")
		response.InternalError(c, "failed to logout")
		return
	}

	response.Success(c, gin.H{"message": "logged out successfully"})
}

// GetMe returns current user info.
func (h *Handler) GetMe(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	user, err := h.userService.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("get user failed")
		response.InternalError(c, "failed to get user")
		return
	}

	response.Success(c, user)
}

// CreateChannel creates a named channel. A duplicate name returns 409
// together with the channel that already holds it.
func (h *Handler) CreateChannel(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := middleware.GetUserID(c)
	if userID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req domain.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid create channel request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.channelService.CreateChannel(ctx, userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrChannelNameTaken) {
			response.ErrorWithData(c, http.StatusConflict, "CONFLICT", "channel name already taken", result)
			return
		}
		l.Error().Err(err).Msg("create channel failed")
		response.InternalError(c, "failed to create channel")
		return
	}

	response.Created(c, result)
}

// ListChannels lists channels with pagination.
func (h *Handler) ListChannels(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	result, err := h.channelService.ListChannels(ctx, page, pageSize)
	if err != nil {
		l.Error().Err(err).Msg("list channels failed")
		response.InternalError(c, "failed to list channels")
		return
	}

	response.Success(c, result)
}

// GetChannel returns a single channel by id.
func (h *Handler) GetChannel(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	channelID := c.Param("id")

	channel, err := h.channelService.GetChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, service.ErrChannelNotFound) {
			response.NotFound(c, "channel not found")
			return
		}
		l.Error().Err(err).Str(log.FieldChannelID, channelID).Msg("get channel failed")
		response.InternalError(c, "failed to get channel")
		return
	}

	resp := channel.ToResponse()
	response.Success(c, resp)
}

// ChannelHistory returns a page of a channel's persisted messages.
func (h *Handler) ChannelHistory(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	channelID := c.Param("id")

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 50)

	result, err := h.channelService.ChannelHistory(ctx, channelID, page, pageSize)
	if err != nil {
		if errors.Is(err, service.ErrChannelNotFound) {
			response.NotFound(c, "channel not found")
			return
		}
		l.Error().Err(err).Str(log.FieldChannelID, channelID).Msg("channel history failed")
		response.InternalError(c, "failed to load channel history")
		return
	}

	response.Success(c, result)
}

func queryInt(c *gin.Context, key string, defaultVal int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return defaultVal
	}
	return v
}
