package controllers

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"civicsync/models"
	"civicsync/utils"
)

// AdminInviteHeader carries the invite code required to register an admin.
const AdminInviteHeader = "X-Admin-Invite"

// UserRepository is the account storage the auth handlers need.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

type AuthController struct {
	users       UserRepository
	secret      string
	tokenTTL    time.Duration
	adminInvite string
	logger      *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewAuthController creates the auth handlers. An empty adminInvite
// disables admin registration.
func NewAuthController(users UserRepository, secret string, tokenTTL time.Duration, adminInvite string, logger *slog.Logger) *AuthController {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthController{
		users:       users,
		secret:      secret,
		tokenTTL:    tokenTTL,
		adminInvite: adminInvite,
		logger:      logger.With("component", "auth"),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return primitive.NewObjectID().Hex() },
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

// RegisterUser creates an account. Accounts are citizens unless a valid
// admin invite accompanies the request.
func (ac *AuthController) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, ac.logger, err)
		return
	}

	role := models.RoleCitizen
	if req.Role != "" {
		role = models.Role(req.Role)
	}
	if !role.Valid() {
		respondError(c, ac.logger, &models.ValidationError{Field: "role", Message: "must be admin or citizen"})
		return
	}
	if role == models.RoleAdmin && !ac.inviteAccepted(c.GetHeader(AdminInviteHeader)) {
		respondError(c, ac.logger, models.ErrUnauthorized)
		return
	}

	user := models.User{
		ID:        ac.newID(),
		Username:  req.Username,
		Password:  req.Password,
		Role:      role,
		CreatedAt: ac.now(),
	}
	if err := user.HashPassword(); err != nil {
		respondError(c, ac.logger, err)
		return
	}

	if err := ac.users.Create(c.Request.Context(), user); err != nil {
		respondError(c, ac.logger, err)
		return
	}

	ac.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	c.JSON(http.StatusCreated, user)
}

func (ac *AuthController) inviteAccepted(invite string) bool {
	if ac.adminInvite == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(invite), []byte(ac.adminInvite)) == 1
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginUser exchanges credentials for a session token.
func (ac *AuthController) LoginUser(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, ac.logger, err)
		return
	}

	user, err := ac.users.FindByUsername(c.Request.Context(), req.Username)
	if errors.Is(err, models.ErrNotFound) || (err == nil && !user.ComparePassword(req.Password)) {
		respondError(c, ac.logger, models.ErrUnauthenticated)
		return
	}
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	token, err := utils.GenerateToken(ac.secret, user.ID, user.Role, ac.tokenTTL)
	if err != nil {
		respondError(c, ac.logger, err)
		return
	}

	c.JSON(http.StatusOK, models.Session{UserID: user.ID, Role: user.Role, Token: token})
}
