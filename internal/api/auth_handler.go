package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/alihalilovic/easygym/internal/domain"
	"github.com/alihalilovic/easygym/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     domain.Role `json:"role" binding:"required,oneof=trainer client"`
}

// UserResponse excludes sensitive info like the password hash.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	TrainerID *string     `json:"trainerId,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

type AvatarUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type AvatarConfirmRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

type ProfileResponse struct {
	UserResponse
	AvatarDownloadURL string `json:"avatarDownloadUrl,omitempty"`
}

// --- Handler Methods ---

// Register godoc
// @Summary Register a new user (Trainer or Client)
// @Description Creates a new user account.
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterRequest true "Registration details"
// @Success 201 {object} UserResponse "User created successfully"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 409 {object} gin.H "Conflict (email already exists)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// Login godoc
// @Summary Log in a user
// @Description Authenticates a user and returns a JWT token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 401 {object} gin.H "Unauthorized (invalid credentials)"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  MapUserToResponse(user),
	})
}

// GetProfile godoc
// @Summary Get own profile
// @Description Returns the authenticated user's profile with a short-lived avatar download URL.
// @Tags Profile
// @Produce json
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	profile, err := h.authService.GetProfile(c.Request.Context(), actor.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapProfileToResponse(profile))
}

// ChangePassword godoc
// @Summary Change own password
// @Description Verifies the current password before accepting the new one.
// @Tags Profile
// @Accept json
// @Produce json
// @Param passwords body ChangePasswordRequest true "Current and new passwords"
// @Success 204 "Password changed"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Current password incorrect"
// @Router /profile/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), actor.ID, req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RequestAvatarUpload godoc
// @Summary Request a presigned avatar upload URL
// @Description Returns a presigned PUT URL and the object key to confirm after uploading.
// @Tags Profile
// @Accept json
// @Produce json
// @Param upload body AvatarUploadRequest true "Content type of the avatar file"
// @Success 200 {object} service.AvatarUploadTicket
// @Failure 400 {object} gin.H "Invalid input"
// @Router /profile/avatar/upload-url [post]
func (h *AuthHandler) RequestAvatarUpload(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req AvatarUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	ticket, err := h.authService.RequestAvatarUpload(c.Request.Context(), actor.ID, req.ContentType)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// ConfirmAvatarUpload godoc
// @Summary Confirm an avatar upload
// @Description Records the uploaded object as the user's avatar and removes the previous one.
// @Tags Profile
// @Accept json
// @Produce json
// @Param confirm body AvatarConfirmRequest true "Object key returned by the upload-url endpoint"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 403 {object} gin.H "Key does not belong to the user"
// @Router /profile/avatar/confirm [post]
func (h *AuthHandler) ConfirmAvatarUpload(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	var req AvatarConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	profile, err := h.authService.ConfirmAvatarUpload(c.Request.Context(), actor.ID, req.ObjectKey)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapProfileToResponse(profile))
}

// MapUserToResponse converts a domain User to a UserResponse DTO,
// excluding the password hash and converting ObjectIDs to strings.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}

	resp := UserResponse{
		ID:        user.ID.Hex(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}

	if user.TrainerID != nil && *user.TrainerID != primitive.NilObjectID {
		trainerIDHex := (*user.TrainerID).Hex()
		resp.TrainerID = &trainerIDHex
	}

	return resp
}

func mapProfileToResponse(profile *service.Profile) ProfileResponse {
	if profile == nil {
		return ProfileResponse{}
	}
	return ProfileResponse{
		UserResponse:      MapUserToResponse(&profile.User),
		AvatarDownloadURL: profile.AvatarDownloadURL,
	}
}
