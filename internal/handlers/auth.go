package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MForte-AI/character-dev-1225/internal/errordata"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/middleware"
	"github.com/MForte-AI/character-dev-1225/internal/services"
)

const (
	refreshTokenCookie = "refresh_token"
	oauthStateCookie   = "oauth_state"
	oauthNextCookie    = "oauth_next"
	oauthCookieTTL     = 10 * time.Minute

	authFailedMessage = "Authentication failed. Please try again."
)

type AuthHandler struct {
	log          *logger.Logger
	authService  services.AuthService
	googleOAuth  services.GoogleOAuth
	appOrigin    string
	secureCookie bool
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService, googleOAuth services.GoogleOAuth, appOrigin string) *AuthHandler {
	return &AuthHandler{
		log:          log.With("handler", "AuthHandler"),
		authService:  authService,
		googleOAuth:  googleOAuth,
		appOrigin:    strings.TrimRight(appOrigin, "/"),
		secureCookie: strings.HasPrefix(appOrigin, "https://"),
	}
}

// GoogleLogin starts the OAuth flow. The optional next path survives the
// round trip in a short-lived cookie.
func (ah *AuthHandler) GoogleLogin(c *gin.Context) {
	state := uuid.NewString()
	maxAge := int(oauthCookieTTL.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, maxAge, "/", "", ah.secureCookie, true)
	if next := c.Query("next"); next != "" {
		c.SetCookie(oauthNextCookie, next, maxAge, "/", "", ah.secureCookie, true)
	}
	c.Redirect(http.StatusFound, ah.googleOAuth.AuthCodeURL(state))
}

// Callback exchanges the code, provisions on first sign-in and redirects
// into the home workspace, or to /setup when there is none.
func (ah *AuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	next := c.Query("next")
	if cookieNext, err := c.Cookie(oauthNextCookie); err == nil && next == "" {
		next = cookieNext
	}
	c.SetCookie(oauthNextCookie, "", -1, "/", "", ah.secureCookie, true)

	code := c.Query("code")
	if code == "" {
		if oauthErr := c.Query("error"); oauthErr != "" {
			ah.redirectLogin(c, oauthErr)
			return
		}
		ah.redirect(c, next)
		return
	}

	wantState, err := c.Cookie(oauthStateCookie)
	c.SetCookie(oauthStateCookie, "", -1, "/", "", ah.secureCookie, true)
	if err != nil || wantState == "" || wantState != c.Query("state") {
		ah.log.Warn("OAuth state mismatch")
		ah.redirectLogin(c, authFailedMessage)
		return
	}

	identity, account, err := ah.googleOAuth.Exchange(ctx, code)
	if err != nil {
		ah.log.Warn("Auth exchange failed", "error", err)
		errordata.Record(ctx, err)
		msg := authFailedMessage
		if errors.Is(err, services.ErrUnverifiedEmail) {
			msg = err.Error()
		}
		ah.redirectLogin(c, msg)
		return
	}

	result, err := ah.authService.SignInWithGoogle(ctx, identity, account)
	if err != nil {
		ah.log.Error("Sign in failed", "email", identity.Email, "error", err)
		errordata.Record(ctx, err)
		ah.redirectLogin(c, authFailedMessage)
		return
	}
	ah.setSessionCookies(c, result.AccessToken, result.RefreshToken)

	target, err := ah.authService.HomeWorkspaceRedirect(ctx, result.User.ID, next)
	if err != nil {
		ah.log.Error("Home workspace lookup failed", "user", result.User.ID, "error", err)
		errordata.Record(ctx, err)
		ah.redirectLogin(c, authFailedMessage)
		return
	}
	ah.redirect(c, target)
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = c.ShouldBindJSON(&req)
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(refreshTokenCookie)
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	accessToken, refreshToken, err := ah.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	ah.setSessionCookies(c, accessToken, refreshToken)
	accessTTL := ah.authService.GetAccessTTL()
	expiresIn := int(accessTTL.Seconds())

	c.JSON(http.StatusOK, gin.H{"access_token": accessToken, "refresh_token": refreshToken, "expires_in": expiresIn})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.Logout(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", ah.secureCookie, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", ah.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

func (ah *AuthHandler) setSessionCookies(c *gin.Context, accessToken, refreshToken string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, accessToken, int(ah.authService.GetAccessTTL().Seconds()), "/", "", ah.secureCookie, true)
	c.SetCookie(refreshTokenCookie, refreshToken, int(ah.authService.GetRefreshTTL().Seconds()), "/", "", ah.secureCookie, true)
}

func (ah *AuthHandler) redirect(c *gin.Context, path string) {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		path = "/"
	}
	c.Redirect(http.StatusFound, ah.appOrigin+path)
}

func (ah *AuthHandler) redirectLogin(c *gin.Context, message string) {
	c.Redirect(http.StatusFound, ah.appOrigin+"/login?message="+url.QueryEscape(message))
}
