package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vacathon/vacathon-api/internal/config"
	"github.com/vacathon/vacathon-api/internal/models"
)

const CookieName = "auth_token"

type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

type SignupRequest struct {
	Body struct {
		Username  string `json:"username" minLength:"3" maxLength:"150" doc:"Unique account name"`
		Email     string `json:"email" format:"email"`
		Password  string `json:"password" minLength:"8"`
		FirstName string `json:"first_name,omitempty" maxLength:"150"`
		LastName  string `json:"last_name,omitempty" maxLength:"150"`
	}
}

type SignupResponse struct {
	Body struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	}
}

// HandleSignup creates the account and its profile in one transaction.
func (h *AuthHandler) HandleSignup(ctx context.Context, input *SignupRequest) (*SignupResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Body.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to hash password")
	}

	user := models.User{
		Username:     strings.TrimSpace(input.Body.Username),
		Email:        strings.TrimSpace(input.Body.Email),
		FirstName:    input.Body.FirstName,
		LastName:     input.Body.LastName,
		PasswordHash: string(hash),
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return huma.Error400BadRequest("Username is already taken")
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserProfile{UserID: user.ID}).Error
	})
	if err != nil {
		var humaErr huma.StatusError
		if errors.As(err, &humaErr) {
			return nil, err
		}
		return nil, huma.Error500InternalServerError("Failed to create account")
	}

	res := &SignupResponse{}
	res.Body.ID = user.ID
	res.Body.Username = user.Username
	return res, nil
}

type LoginRequest struct {
	Body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
}

type LoginResponse struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Token    string `json:"token"`
		Username string `json:"username"`
		IsStaff  bool   `json:"is_staff"`
	}
}

// HandleLogin checks credentials, sets the session cookie, and returns the
// same token for API clients.
func (h *AuthHandler) HandleLogin(ctx context.Context, input *LoginRequest) (*LoginResponse, error) {
	user, err := h.authenticate(ctx, input.Body.Username, input.Body.Password)
	if err != nil {
		return nil, err
	}

	token, err := h.GenerateToken(user.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}

	res := &LoginResponse{
		SetCookie: http.Cookie{
			Name:     CookieName,
			Value:    token,
			Expires:  time.Now().Add(h.cfg.TokenDuration),
			HttpOnly: true,
			Path:     "/",
		},
	}
	res.Body.Token = token
	res.Body.Username = user.Username
	res.Body.IsStaff = user.IsStaff
	return res, nil
}

type TokenRequest struct {
	Body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
}

type TokenResponse struct {
	Body struct {
		Token string `json:"token"`
	}
}

// HandleToken is the mobile-facing token endpoint.
func (h *AuthHandler) HandleToken(ctx context.Context, input *TokenRequest) (*TokenResponse, error) {
	user, err := h.authenticate(ctx, input.Body.Username, input.Body.Password)
	if err != nil {
		return nil, err
	}
	token, err := h.GenerateToken(user.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}
	res := &TokenResponse{}
	res.Body.Token = token
	return res, nil
}

type MeRequest struct{}

type MeResponse struct {
	Body struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		IsStaff  bool   `json:"is_staff"`
	}
}

func (h *AuthHandler) HandleMe(ctx context.Context, _ *MeRequest) (*MeResponse, error) {
	user, err := h.CurrentUser(ctx)
	if err != nil {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}
	res := &MeResponse{}
	res.Body.ID = user.ID
	res.Body.Username = user.Username
	res.Body.Email = user.Email
	res.Body.IsStaff = user.IsStaff
	return res, nil
}

// CurrentUser loads the user identified by the request context.
func (h *AuthHandler) CurrentUser(ctx context.Context) (*models.User, error) {
	userID, ok := ctx.Value(UserIDKey).(uint)
	if !ok {
		return nil, errors.New("no authenticated user in context")
	}
	var user models.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (h *AuthHandler) authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := h.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error401Unauthorized("Invalid username or password")
		}
		return nil, huma.Error500InternalServerError("Database error")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, huma.Error401Unauthorized("Invalid username or password")
	}
	return &user, nil
}

func (h *AuthHandler) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(h.cfg.TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

func (h *AuthHandler) parseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid token claims")
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("invalid token claims")
	}
	return uint(userIDFloat), nil
}
