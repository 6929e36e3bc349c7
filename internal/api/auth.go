package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Token lifetime

	"expense_tracker/internal/domain"     // Importing domain models
	"expense_tracker/internal/middleware" // Current user
	"expense_tracker/internal/repository" // User persistence
	"expense_tracker/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging
)

// Request struct for registration, shared by users and admins
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=64"` // Username must be at least 3 characters
	Email     string `json:"email" binding:"required,email"`           // Valid email
	Password  string `json:"password" binding:"required,min=6"`        // Password must be at least 6 characters
	FirstName string `json:"firstName" binding:"required,max=64"`      // Given name
	LastName  string `json:"lastName" binding:"required,max=64"`       // Family name
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"` // Email must be provided
	Password string `json:"password" binding:"required"`    // Password must be provided
}

// Request struct for profile updates; absent fields stay unchanged
type UpdateProfileRequest struct {
	Username  *string `json:"username" binding:"omitempty,min=3,max=64"`
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"firstName" binding:"omitempty,max=64"`
	LastName  *string `json:"lastName" binding:"omitempty,max=64"`
}

// Response struct for a user profile
type UserResponse struct {
	ID         uint       `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	DateOfJoin *time.Time `json:"dateOfJoin,omitempty"` // Only on GET /auth/me
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

// validate checks rules the binding tags cannot express
// validate rejects names that are blank once trimmed
func (r *RegisterRequest) validate() error {
	v := domain.NewValidationError()
	if strings.TrimSpace(r.FirstName) == "" {
		v.Add("firstName", "is required")
	}
	if strings.TrimSpace(r.LastName) == "" {
		v.Add("lastName", "is required")
	}
	return v.OrNil()
}

func (r *UpdateProfileRequest) validate() error {
	v := domain.NewValidationError()
	if r.FirstName != nil && strings.TrimSpace(*r.FirstName) == "" {
		v.Add("firstName", "is required")
	}
	if r.LastName != nil && strings.TrimSpace(*r.LastName) == "" {
		v.Add("lastName", "is required")
	}
	return v.OrNil()
}

// RegisterHandler creates a user and returns a token
func RegisterHandler(users *repository.UserRepository, rdb *redis.Client, secret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		if err := req.validate(); err != nil {
			respondError(c, err, "User")
			return
		}
		// Hash the password and create the user
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			respondError(c, err, "User")
			return
		}
		user := domain.User{
			Username:  req.Username,
			Email:     req.Email,
			Password:  hash,
			FirstName: strings.TrimSpace(req.FirstName),
			LastName:  strings.TrimSpace(req.LastName),
		}
		if err := users.Create(c.Request.Context(), &user); err != nil {
			respondError(c, err, "User")
			return
		}
		token, err := utils.GenerateJWT(user.ID, domain.RoleUser, secret, ttl)
		if err != nil {
			respondError(c, err, "User")
			return
		}
		invalidate(c, rdb, usersCacheNS)
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
		c.JSON(http.StatusCreated, gin.H{"success": true, "token": token, "user": newUserResponse(&user)})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(users *repository.UserRepository, secret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if !bindJSON(c, &req) {
			return
		}
		user, err := users.ByEmail(c.Request.Context(), req.Email)
		if errors.Is(err, domain.ErrNotFound) {
			err = domain.ErrInvalidCredentials
		}
		if err != nil {
			respondError(c, err, "User")
			return
		}
		// Compare provided password with stored hash
		if !utils.CheckPassword(user.Password, req.Password) {
			respondError(c, domain.ErrInvalidCredentials, "User")
			return
		}
		token, err := utils.GenerateJWT(user.ID, domain.RoleUser, secret, ttl)
		if err != nil {
			respondError(c, err, "User")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": newUserResponse(user)})
	}
}

// MeHandler returns the caller's profile
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		resp := newUserResponse(user)
		resp.DateOfJoin = &user.CreatedAt
		c.JSON(http.StatusOK, gin.H{"success": true, "user": resp})
	}
}

// UpdateMeHandler updates the caller's own profile
func UpdateMeHandler(users *repository.UserRepository, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateProfileRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := req.validate(); err != nil {
			respondError(c, err, "User")
			return
		}
		userID := c.GetUint(middleware.KeyUserID)
		user, err := users.UpdateProfile(c.Request.Context(), userID, domain.ProfilePatch{
			Username:  req.Username,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err != nil {
			respondError(c, err, "User")
			return
		}
		// Owner details are embedded in the transactions listing too
		invalidate(c, rdb, usersCacheNS)
		invalidate(c, rdb, txsCacheNS)
		c.JSON(http.StatusOK, gin.H{"success": true, "user": newUserResponse(user)})
	}
}
