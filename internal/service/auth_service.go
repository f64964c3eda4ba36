package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/alihalilovic/easygym/internal/domain"
	"github.com/alihalilovic/easygym/internal/repository"
	"github.com/alihalilovic/easygym/internal/storage"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Profile is the user document enriched with a presigned avatar URL.
type Profile struct {
	domain.User
	AvatarDownloadURL string `json:"avatarDownloadUrl,omitempty"`
}

// AvatarUploadTicket carries a presigned PUT URL and the object key the
// client must confirm after uploading.
type AvatarUploadTicket struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// AuthService handles registration, login, and profile maintenance.
type AuthService interface {
	Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*Profile, error)
	ChangePassword(ctx context.Context, userID primitive.ObjectID, currentPassword, newPassword string) error
	RequestAvatarUpload(ctx context.Context, userID primitive.ObjectID, contentType string) (*AvatarUploadTicket, error)
	ConfirmAvatarUpload(ctx context.Context, userID primitive.ObjectID, objectKey string) (*Profile, error)
	GetJWTSecret() string
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	fileStorage   storage.FileStorage
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, fileStorage storage.FileStorage, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		fileStorage:   fileStorage,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Register handles new user registration. Only trainer and client
// accounts self-register; admin accounts are provisioned out of band.
func (s *authService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, validationError("name, email, and password are required")
	}
	if role != domain.RoleTrainer && role != domain.RoleClient {
		return nil, validationError("role must be %q or %q", domain.RoleTrainer, domain.RoleClient)
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// The unique email index catches the race between the GetByEmail
		// check and this insert.
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID

	user.PasswordHash = ""
	return user, nil
}

// Login authenticates by email and password and issues a JWT. All
// failures map to the same error so callers cannot probe which emails
// are registered.
func (s *authService) Login(ctx context.Context, email, password string) (token string, user *domain.User, err error) {
	if email == "" || password == "" {
		return "", nil, ErrAuthenticationFailed
	}

	user, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err = s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// GetProfile returns the user's own document with a short-lived download
// URL for the avatar, when one is set.
func (s *authService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""

	profile := &Profile{User: *user}
	if user.AvatarURL != "" && s.fileStorage != nil {
		url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, user.AvatarURL, storage.DefaultPresignedURLExpiry)
		if err != nil {
			// A broken storage backend should not hide the profile itself.
			log.Printf("WARN: presigning avatar download for user %s failed: %v", userID.Hex(), err)
		} else {
			profile.AvatarDownloadURL = url
		}
	}
	return profile, nil
}

// ChangePassword verifies the current password before accepting the new one.
func (s *authService) ChangePassword(ctx context.Context, userID primitive.ObjectID, currentPassword, newPassword string) error {
	if newPassword == "" {
		return validationError("new password is required")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrAuthenticationFailed
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrHashingFailed
	}

	user.PasswordHash = string(hashedPassword)
	return s.userRepo.Update(ctx, user)
}

// RequestAvatarUpload mints an object key and a presigned PUT URL. The
// avatar is only recorded on the user after ConfirmAvatarUpload.
func (s *authService) RequestAvatarUpload(ctx context.Context, userID primitive.ObjectID, contentType string) (*AvatarUploadTicket, error) {
	if s.fileStorage == nil {
		return nil, errors.New("file storage is not configured")
	}
	if contentType == "" {
		return nil, validationError("content type is required")
	}

	objectKey := fmt.Sprintf("avatars/%s/%s", userID.Hex(), uuid.NewString())
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, err
	}

	return &AvatarUploadTicket{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// ConfirmAvatarUpload records the uploaded object as the user's avatar.
// The previous avatar object is deleted best-effort: a storage failure
// is logged and never blocks the profile update.
func (s *authService) ConfirmAvatarUpload(ctx context.Context, userID primitive.ObjectID, objectKey string) (*Profile, error) {
	if objectKey == "" {
		return nil, validationError("object key is required")
	}
	// Keys are minted under the requesting user's prefix; confirming
	// someone else's key is rejected.
	if !strings.HasPrefix(objectKey, "avatars/"+userID.Hex()+"/") {
		return nil, ErrForbidden
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	oldKey := user.AvatarURL
	user.AvatarURL = objectKey
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if oldKey != "" && oldKey != objectKey && s.fileStorage != nil {
		if err := s.fileStorage.DeleteObject(ctx, oldKey); err != nil {
			log.Printf("WARN: deleting previous avatar object %q failed: %v", oldKey, err)
		}
	}

	return s.GetProfile(ctx, userID)
}

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	expirationTime := time.Now().Add(s.jwtExpiration)
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "easygym",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// GetJWTSecret returns the JWT secret for middleware authentication.
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
