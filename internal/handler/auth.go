package handler

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recipeshare/api/internal/apperr"
	"github.com/recipeshare/api/internal/auth"
	"github.com/recipeshare/api/internal/service"
	"golang.org/x/oauth2"
)

const oauthStateCookie = "oauth_state"

// SessionCookie describes how the session token is stored in the browser.
type SessionCookie struct {
	Name   string
	Secure bool
	MaxAge int
}

type AuthHandler struct {
	accounts     *service.AccountService
	googleConfig *oauth2.Config
	cookie       SessionCookie
	frontendURL  string
}

func NewAuthHandler(accounts *service.AccountService, googleConfig *oauth2.Config, cookie SessionCookie, frontendURL string) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		googleConfig: googleConfig,
		cookie:       cookie,
		frontendURL:  frontendURL,
	}
}

func (h *AuthHandler) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, h.cookie.MaxAge, "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req service.SignupInput
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.accounts.Signup(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSession(c, token)
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSession(c, token)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// Logout clears the session cookie. Tokens are stateless, so nothing is revoked server side.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out"})
}

// GoogleAuth redirects to Google OAuth authorization URL
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	if h.googleConfig == nil {
		respondError(c, apperr.NotFound("google login is not configured"))
		return
	}

	state, err := generateState()
	if err != nil {
		respondError(c, apperr.Wrap(err, "failed to start login"))
		return
	}
	// CSRF protection
	c.SetCookie(oauthStateCookie, state, 600, "/", "", h.cookie.Secure, true)

	url := h.googleConfig.AuthCodeURL(state)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback exchanges the code, signs the user in and returns to the frontend.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.googleConfig == nil {
		respondError(c, apperr.NotFound("google login is not configured"))
		return
	}

	state := c.Query("state")
	savedState, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != savedState {
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?error=invalid_state")
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.cookie.Secure, true)

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?error=no_code")
		return
	}

	token, err := h.googleConfig.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Printf("Failed to exchange code: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?error=exchange_failed")
		return
	}

	info, err := auth.GetGoogleUserInfo(c.Request.Context(), h.googleConfig, token)
	if err != nil {
		log.Printf("Failed to get user info: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?error=user_info_failed")
		return
	}

	_, session, err := h.accounts.LoginWithGoogle(c.Request.Context(), info)
	if err != nil {
		log.Printf("Google login refused: %v", err)
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"?error=login_failed")
		return
	}

	h.setSession(c, session)
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL)
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
