package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"moment-backend/internal/apperr"
	"moment-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpDays        = 365
	minPasswordLength = 8
)

// UserService handles accounts, credentials, profile updates and the
// user-deletion cascade.
type UserService struct {
	userStore    UserStore
	jwtSecret    string
	images       ImageStore
	publications *PublicationService
	comments     *CommentService
	friendships  *FriendshipService
}

// NewUserService creates a new user service
func NewUserService(
	userStore UserStore,
	jwtSecret string,
	images ImageStore,
	publications *PublicationService,
	comments *CommentService,
	friendships *FriendshipService,
) *UserService {
	return &UserService{
		userStore:    userStore,
		jwtSecret:    jwtSecret,
		images:       images,
		publications: publications,
		comments:     comments,
		friendships:  friendships,
	}
}

// RegisterRequest carries the fields for a new account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Register creates a new account. Only an existing administrator may create
// another administrator; unauthenticated registration always yields a
// regular user.
func (s *UserService) Register(ctx context.Context, req RegisterRequest, actorRole models.Role) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)

	if req.Name == "" || req.Email == "" || req.Phone == "" {
		return nil, apperr.New(apperr.InvalidArgument, "name, email and phone are required")
	}
	if !strings.Contains(req.Email, "@") {
		return nil, apperr.New(apperr.InvalidArgument, "email is not valid")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperr.Newf(apperr.InvalidArgument, "password must be at least %d characters", minPasswordLength)
	}

	role := models.RoleUser
	if req.Role == string(models.RoleAdmin) {
		if actorRole != models.RoleAdmin {
			return nil, apperr.New(apperr.Forbidden, "only an administrator can create administrators")
		}
		role = models.RoleAdmin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now(),
	}
	if err := s.userStore.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and returns a signed token plus the user.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return "", nil, apperr.New(apperr.InvalidArgument, "invalid credentials")
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.New(apperr.InvalidArgument, "invalid credentials")
	}

	token, err := s.GenerateJWT(user.ID, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string, role models.Role) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID and role
func (s *UserService) ValidateJWT(tokenString string) (string, models.Role, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", "", fmt.Errorf("user_id not found in token")
	}
	role, ok := claims["role"].(string)
	if !ok {
		role = string(models.RoleUser)
	}

	return userID, models.Role(role), nil
}

// Get retrieves a user by ID
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.userStore.GetByID(ctx, id)
}

// UpdateRequest carries a partial profile update; nil fields are left
// unchanged.
type UpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// Update changes a user's profile fields. Only the user themselves or an
// administrator may update the account; uniqueness of email and phone is
// enforced the same way as on registration.
func (s *UserService) Update(ctx context.Context, actorID string, actorRole models.Role, targetID string, req UpdateRequest) (*models.User, error) {
	if actorID != targetID && actorRole != models.RoleAdmin {
		return nil, apperr.New(apperr.Forbidden, "you are not authorized to update this user")
	}

	user, err := s.userStore.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}

	if user.Name == "" || user.Email == "" || user.Phone == "" {
		return nil, apperr.New(apperr.InvalidArgument, "name, email and phone are required")
	}
	if !strings.Contains(user.Email, "@") {
		return nil, apperr.New(apperr.InvalidArgument, "email is not valid")
	}

	if err := s.userStore.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetProfilePicture uploads a new profile picture and removes the previous
// CDN object once the new one is recorded.
func (s *UserService) SetProfilePicture(ctx context.Context, actorID string, actorRole models.Role, targetID string, upload ImageUpload) (*models.User, error) {
	if actorID != targetID && actorRole != models.RoleAdmin {
		return nil, apperr.New(apperr.Forbidden, "you are not authorized to update this user")
	}
	if len(upload.Data) == 0 {
		return nil, apperr.New(apperr.InvalidArgument, "profilePicture image is required")
	}

	user, err := s.userStore.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("profiles/%s/%s.jpg", targetID, uuid.New().String())
	picture, err := s.images.Upload(ctx, key, contentTypeOrDefault(upload.ContentType), upload.Data)
	if err != nil {
		return nil, apperr.Wrap(apperr.DependencyFailure, "failed to upload profile picture", err)
	}

	if err := s.userStore.UpdateProfilePicture(ctx, targetID, &picture); err != nil {
		return nil, err
	}

	if user.ProfilePicture != nil {
		if delErr := s.images.Delete(ctx, user.ProfilePicture.ObjectKey); delErr != nil {
			log.Error().Err(delErr).Str("object_key", user.ProfilePicture.ObjectKey).Msg("Failed to delete previous profile picture")
		}
	}

	user.ProfilePicture = &picture
	return user, nil
}

// List retrieves users with pagination
func (s *UserService) List(ctx context.Context, page, pageSize int) ([]*models.User, int, error) {
	page, pageSize = normalizePagination(page, pageSize)
	return s.userStore.List(ctx, pageSize, pageSize*(page-1))
}

// UpdatePushToken stores the device token used for broadcast push delivery.
func (s *UserService) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	return s.userStore.UpdatePushToken(ctx, userID, pushToken)
}

// Delete removes an account. Only the user themselves or an administrator
// may delete it. Cascade order: publications (CDN cleanup first, aborting on
// failure), the user's comments with their reply trees, all friendships, the
// profile picture's CDN object, then the account row.
func (s *UserService) Delete(ctx context.Context, actorID string, actorRole models.Role, targetID string) error {
	if actorID != targetID && actorRole != models.RoleAdmin {
		return apperr.New(apperr.Forbidden, "you are not authorized to delete this user")
	}

	user, err := s.userStore.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if err := s.publications.DeleteAllForUser(ctx, targetID); err != nil {
		return err
	}
	if err := s.comments.DeleteAllForUser(ctx, targetID); err != nil {
		return err
	}
	if err := s.friendships.RemoveAllForUser(ctx, targetID); err != nil {
		return err
	}
	if user.ProfilePicture != nil {
		if err := s.images.Delete(ctx, user.ProfilePicture.ObjectKey); err != nil {
			return apperr.Wrap(apperr.DependencyFailure, "failed to delete profile picture", err)
		}
	}
	return s.userStore.Delete(ctx, targetID)
}
