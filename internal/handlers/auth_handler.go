package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/memorylane/recall-service/internal/services"
	"github.com/memorylane/recall-service/internal/utils"
)

const sessionMaxAge = 7 * 24 * 60 * 60

type AuthHandler struct {
	BaseHandler
	auth      services.Authenticator
	identity  services.IdentityService
	cookie    string
	appOrigin string
	secure    bool
}

func NewAuthHandler(
	auth services.Authenticator,
	identity services.IdentityService,
	cookie, appOrigin string,
	secure bool,
	logger utils.Logger,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		auth:        auth,
		identity:    identity,
		cookie:      cookie,
		appOrigin:   appOrigin,
		secure:      secure,
	}
}

type meUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type MeResponse struct {
	User *meUser `json:"user"`
}

// Login redirects to the identity provider
// @Summary Start sign-in
// @Tags auth
// @Param returnTo query string false "Relative path to land on after sign-in"
// @Param screen_hint query string false "signup selects the sign-up page"
// @Success 302
// @Router /auth/login [get]
func (h *AuthHandler) Login(c *gin.Context) {
	returnTo := services.SafeReturnPath(c.Query("returnTo"))
	callback := h.appOrigin + "/auth/callback?returnTo=" + url.QueryEscape(returnTo)

	target := h.auth.SignInURL(callback, c.Query("screen_hint") == "signup")
	if target == "" {
		h.handleServiceError(c, services.ErrIdentityNotConfigured)
		return
	}
	c.Redirect(http.StatusFound, target)
}

// Callback exchanges the authorization code and stores the session cookie
// @Summary Finish sign-in
// @Tags auth
// @Param code query string true "Authorization code"
// @Param state query string false "OAuth state"
// @Success 302
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /auth/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	token, err := h.auth.ExchangeCode(c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie, token, sessionMaxAge, "/", "", h.secure, true)

	h.LogRequest(c, "Session established")
	c.Redirect(http.StatusFound, services.SafeReturnPath(c.Query("returnTo")))
}

// @Summary Sign out
// @Tags auth
// @Success 302
// @Router /auth/logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie, "", -1, "/", "", h.secure, true)
	c.Redirect(http.StatusFound, services.SafeReturnPath(c.Query("returnTo")))
}

// Me reports the signed-in user, or null
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} MeResponse
// @Router /api/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusOK, MeResponse{User: nil})
		return
	}

	role, err := h.identity.CurrentRole(c.Request.Context(), identity.Sub)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{User: &meUser{
		ID:   identity.Sub,
		Name: identity.DisplayName(),
		Role: string(role),
	}})
}
