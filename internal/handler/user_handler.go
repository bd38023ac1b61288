package handler

import (
	"net/http"
	"time"

	"bscar/backend/internal/auth"
	"bscar/backend/internal/models"
	"bscar/backend/internal/storage"
	"bscar/backend/internal/store"
	"bscar/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// region --- DTOs ---

// RegisterInput defines the structure for user registration. Sent as JSON,
// or as a multipart form when an avatar file is attached.
type RegisterInput struct {
	Email    string `json:"email" form:"email" binding:"required,email" example:"buyer@example.com"`
	Password string `json:"password" form:"password" binding:"required,min=8" example:"password123"`
	Name     string `json:"name" form:"name" example:"Anna"`
}

// LoginInput defines the structure for user login.
type LoginInput struct {
	Email    string `json:"email" form:"email" binding:"required" example:"buyer@example.com"`
	Password string `json:"password" form:"password" binding:"required" example:"password123"`
}

// ProfileInput carries the editable profile fields. Empty fields are kept.
type ProfileInput struct {
	Name  string `json:"name" form:"name" example:"Anna"`
	Email string `json:"email" form:"email" example:"anna@example.com"`
}

// PublicUserResponse is what other users see of an account.
type PublicUserResponse struct {
	ID        uint    `json:"id" example:"1"`
	Name      string  `json:"name" example:"Anna"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// PrivateUserResponse defines the structure for the authenticated user's own profile.
type PrivateUserResponse struct {
	ID        uint        `json:"id" example:"1"`
	Email     string      `json:"email" example:"anna@example.com"`
	Name      string      `json:"name" example:"Anna"`
	Role      models.Role `json:"role" example:"user"`
	AvatarURL *string     `json:"avatar_url,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	Token string              `json:"token"`
	User  PrivateUserResponse `json:"user"`
}

func avatarURL(user models.User) *string {
	if user.AvatarFilename == nil || *user.AvatarFilename == "" {
		return nil
	}
	url := fileURL(storage.BucketAvatars, *user.AvatarFilename)
	return &url
}

func buildPublicUserResponse(user models.User) PublicUserResponse {
	return PublicUserResponse{
		ID:        user.ID,
		Name:      user.DisplayName(),
		AvatarURL: avatarURL(user),
	}
}

func buildPrivateUserResponse(user models.User) PrivateUserResponse {
	return PrivateUserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		AvatarURL: avatarURL(user),
		CreatedAt: user.CreatedAt,
	}
}

// endregion

// region --- Auth Handlers ---

// startSession issues a token for user, sets the session cookie and writes
// the response.
func (h *Handler) startSession(c *gin.Context, status int, user models.User) {
	token, err := jwt.GenerateToken(user.ID, h.session.Secret, h.session.TTL)
	if err != nil {
		h.log.WithError(err).Error("failed to generate session token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate token"})
		return
	}
	auth.SetSessionCookie(c, token, h.session.TTL, h.session.CookieSecure)
	c.JSON(status, SessionResponse{Token: token, User: buildPrivateUserResponse(user)})
}

// RegisterUser godoc
// @Summary      Register a new user
// @Description  Creates a new account, optionally with an avatar, and starts a session.
// @Tags         auth
// @Accept       json,mpfd
// @Produce      json
// @Param        input body RegisterInput true "Registration Info"
// @Success      201  {object}  SessionResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Email already registered"
// @Failure      429  {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) RegisterUser(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	avatar, err := formUpload(c, "avatar")
	if err != nil {
		h.respondError(c, err)
		return
	}

	user, err := h.store.Register(c.Request.Context(), store.RegisterInput{
		Email:    input.Email,
		Password: input.Password,
		Name:     input.Name,
	}, avatar)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.startSession(c, http.StatusCreated, *user)
}

// LoginUser godoc
// @Summary      Log in a user
// @Description  Authenticates with email and password and starts a session.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input body LoginInput true "Login Info"
// @Success      200  {object}  SessionResponse
// @Failure      400  {object}  ErrorResponse "Invalid input"
// @Failure      403  {object}  ErrorResponse "Invalid credentials or blocked account"
// @Failure      429  {object}  ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) LoginUser(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	user, err := h.store.Authenticate(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.startSession(c, http.StatusOK, *user)
}

// LogoutUser godoc
// @Summary      Log out
// @Description  Clears the session cookie. Bearer tokens simply expire.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /auth/logout [post]
func (h *Handler) LogoutUser(c *gin.Context) {
	if user, ok := auth.CurrentUser(c); ok {
		h.log.WithFields(logrus.Fields{"user_id": user.ID}).Info("user logged out")
	}
	auth.ClearSessionCookie(c, h.session.CookieSecure)
	c.JSON(http.StatusOK, StatusResponse{Message: "Logged out"})
}

// endregion

// region --- Profile Handlers ---

// GetMe godoc
// @Summary      Get current user's profile
// @Description  Gets the full profile of the currently authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  PrivateUserResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me [get]
func (h *Handler) GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, buildPrivateUserResponse(user))
}

// UpdateMe godoc
// @Summary      Edit current user's profile
// @Description  Changes name, email or avatar. Empty fields are left unchanged.
// @Tags         users
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        name   formData string false "Display name"
// @Param        email  formData string false "New email"
// @Param        avatar formData file   false "Avatar image"
// @Success      200  {object}  PrivateUserResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Email used by another user"
// @Router       /users/me [put]
func (h *Handler) UpdateMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input ProfileInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	avatar, err := formUpload(c, "avatar")
	if err != nil {
		h.respondError(c, err)
		return
	}

	updated, err := h.store.UpdateProfile(c.Request.Context(), user, store.ProfileInput{
		Name:  input.Name,
		Email: input.Email,
	}, avatar)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildPrivateUserResponse(*updated))
}

// endregion
