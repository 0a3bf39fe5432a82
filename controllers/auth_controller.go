package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Govind-619/FolioForge/config"
	"github.com/Govind-619/FolioForge/middleware"
	"github.com/Govind-619/FolioForge/models"
	"github.com/Govind-619/FolioForge/store"
	"github.com/Govind-619/FolioForge/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

// AuthController handles registration, login and Google sign-in.
type AuthController struct {
	store       store.Store
	jwtSecret   string
	tokenTTL    time.Duration
	oauth       *oauth2.Config
	frontendURL string
}

// NewAuthController creates the account handlers. oauth may be nil when
// Google login is not configured.
func NewAuthController(st store.Store, jwtSecret string, tokenTTL time.Duration, oauth *oauth2.Config, frontendURL string) *AuthController {
	return &AuthController{
		store:       st,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
		oauth:       oauth,
		frontendURL: frontendURL,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// GoogleUserInfo is the profile returned by Google's userinfo endpoint
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// Register creates an account with an e-mail and password.
func (a *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	req.Name = utils.SanitizeString(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var errs utils.FieldValidationErrors
	if valid, msg := utils.ValidateName(req.Name); !valid {
		errs.Add("name", msg)
	}
	if valid, msg := utils.ValidateEmail(req.Email); !valid {
		errs.Add("email", msg)
	}
	if valid, msg := utils.ValidatePassword(req.Password); !valid {
		errs.Add("password", msg)
	}
	if len(errs) > 0 {
		utils.BadRequest(c, "Validation failed", errs)
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(c, utils.InternalError("Failed to hash password", err))
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Subscription: models.Subscription{Type: models.TierFree},
	}
	if err := a.store.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			utils.Conflict(c, "Email already registered", nil)
			return
		}
		respondError(c, err)
		return
	}

	token, err := utils.GenerateToken(a.jwtSecret, user.ID, user.Email, user.IsAdmin, a.tokenTTL)
	if err != nil {
		respondError(c, utils.InternalError("Failed to generate token", err))
		return
	}

	utils.LogInfo("User registered: %s", utils.RedactEmail(user.Email))
	utils.Created(c, utils.MsgRegisterSuccess, gin.H{"token": token, "user": userView(user)})
}

// Login exchanges an e-mail and password for an access token.
func (a *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := a.store.GetUserByEmail(c.Request.Context(), email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		respondError(c, err)
		return
	}
	if err != nil || user.PasswordHash == "" || !utils.CheckPassword(req.Password, user.PasswordHash) {
		utils.LogWarn("Login attempt failed for %s", utils.RedactEmail(email))
		utils.Unauthorized(c, utils.ErrInvalidCredentials)
		return
	}

	token, err := utils.GenerateToken(a.jwtSecret, user.ID, user.Email, user.IsAdmin, a.tokenTTL)
	if err != nil {
		respondError(c, utils.InternalError("Failed to generate token", err))
		return
	}

	utils.LogInfo("User logged in: %s", utils.RedactEmail(user.Email))
	utils.Success(c, utils.MsgLoginSuccess, gin.H{"token": token, "user": userView(user)})
}

// GoogleLogin redirects to Google's consent screen.
func (a *AuthController) GoogleLogin(c *gin.Context) {
	if a.oauth == nil {
		utils.NotFound(c, "Google login is not configured")
		return
	}
	state, err := utils.NewOAuthState(c)
	if err != nil {
		respondError(c, utils.InternalError("Failed to start Google login", err))
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, a.oauth.AuthCodeURL(state))
}

// GoogleCallback completes Google sign-in and redirects to the frontend
// with an access token.
func (a *AuthController) GoogleCallback(c *gin.Context) {
	if a.oauth == nil {
		utils.NotFound(c, "Google login is not configured")
		return
	}
	if !utils.ConsumeOAuthState(c, c.Query("state")) {
		utils.LogWarn("Google callback with invalid state")
		utils.BadRequest(c, "Invalid OAuth state", nil)
		return
	}
	code := c.Query("code")
	if code == "" {
		utils.BadRequest(c, "No code provided", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		utils.LogError("Failed to exchange Google code: %v", err)
		utils.Unauthorized(c, "Google login failed")
		return
	}

	resp, err := a.oauth.Client(ctx, token).Get(config.GoogleUserInfoURL)
	if err != nil {
		respondError(c, utils.ServiceUnavailableError("Failed to get Google profile", err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respondError(c, utils.ServiceUnavailableError("Failed to get Google profile", fmt.Errorf("userinfo status %d", resp.StatusCode)))
		return
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		respondError(c, utils.InternalError("Failed to parse Google profile", err))
		return
	}
	if info.ID == "" || info.Email == "" || !info.VerifiedEmail {
		utils.Unauthorized(c, "Google account e-mail is not verified")
		return
	}

	user, err := a.findOrCreateGoogleUser(c, info)
	if err != nil {
		respondError(c, err)
		return
	}

	jwtToken, err := utils.GenerateToken(a.jwtSecret, user.ID, user.Email, user.IsAdmin, a.tokenTTL)
	if err != nil {
		respondError(c, utils.InternalError("Failed to generate token", err))
		return
	}

	utils.LogInfo("Google login for %s", utils.RedactEmail(user.Email))
	c.Redirect(http.StatusTemporaryRedirect, fmt.Sprintf("%s/auth/callback?token=%s", strings.TrimRight(a.frontendURL, "/"), url.QueryEscape(jwtToken)))
}

func (a *AuthController) findOrCreateGoogleUser(c *gin.Context, info GoogleUserInfo) (models.User, error) {
	ctx := c.Request.Context()

	user, err := a.store.GetUserByGoogleID(ctx, info.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.User{}, err
	}

	email := strings.ToLower(info.Email)
	user, err = a.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if err := a.store.LinkGoogleAccount(ctx, user.ID, info.ID); err != nil {
			return models.User{}, err
		}
		return a.store.GetUserByID(ctx, user.ID)
	case !errors.Is(err, store.ErrNotFound):
		return models.User{}, err
	}

	googleID := info.ID
	user = models.User{
		Name:         utils.SanitizeString(info.Name),
		Email:        email,
		GoogleID:     &googleID,
		Subscription: models.Subscription{Type: models.TierFree},
	}
	if err := a.store.CreateUser(ctx, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Me returns the caller's profile, subscription and token balance.
func (a *AuthController) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		utils.Unauthorized(c, utils.ErrUnauthorized)
		return
	}
	utils.Success(c, "Profile retrieved successfully", userView(user))
}

func userView(u models.User) gin.H {
	return gin.H{
		"id":           u.ID,
		"name":         u.Name,
		"email":        u.Email,
		"is_admin":     u.IsAdmin,
		"subscription": u.Subscription,
		"tokens":       u.Tokens,
		"unlimited":    u.HasUnlimitedTokens(),
	}
}
