package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tazhibayda/profile-service/internal/auth"
	"github.com/tazhibayda/profile-service/internal/codec"
	"github.com/tazhibayda/profile-service/internal/response"
)

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register godoc
// @Summary Register a local account
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body credentialsReq true "username and password"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var in credentialsReq
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badJSON(c)
		return
	}
	p, err := h.Auth.Register(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success("User registered successfully", gin.H{
		"userId": codec.RenderHandle(p.ID),
	}))
}

type loginResp struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	AccessToken string `json:"accessToken"`
}

// Login godoc
// @Summary Login with a local account
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body credentialsReq true "username and password"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var in credentialsReq
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badJSON(c)
		return
	}
	res, err := h.Auth.Login(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Login successful", loginResp{
		UserID:      codec.RenderHandle(res.Profile.ID),
		Username:    res.Profile.Username,
		AccessToken: res.AccessToken,
	}))
}

type signupReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type signinReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type providerResp struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	UID          string `json:"uid"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
}

func toProviderResp(r *auth.Result) providerResp {
	return providerResp{
		UserID:       codec.RenderHandle(r.Profile.ID),
		Email:        r.Email,
		Username:     r.Profile.Username,
		UID:          r.UID,
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
	}
}

// SignUp godoc
// @Summary Create an email account at the identity provider
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body signupReq true "email, password (min 8), username (alphanumeric, min 3)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/auth/signup [post]
func (h *Handler) SignUp(c *gin.Context) {
	var in signupReq
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badJSON(c)
		return
	}
	res, err := h.Auth.SignUp(c.Request.Context(), in.Email, in.Password, in.Username)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success("User registered successfully", toProviderResp(res)))
}

// SignIn godoc
// @Summary Sign in with an email account at the identity provider
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body signinReq true "email and password"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/auth/signin [post]
func (h *Handler) SignIn(c *gin.Context) {
	var in signinReq
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badJSON(c)
		return
	}
	res, err := h.Auth.SignIn(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Login successful", toProviderResp(res)))
}

type idTokenReq struct {
	IDToken string `json:"idToken"`
}

// Google godoc
// @Summary Exchange a provider ID token (e.g. Google sign-in) for the caller's profile
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body idTokenReq true "provider id token"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/auth/google [post]
func (h *Handler) Google(c *gin.Context) {
	var in idTokenReq
	if err := c.ShouldBindJSON(&in); err != nil || in.IDToken == "" {
		h.badJSON(c)
		return
	}
	uc, err := h.Auth.VerifyProvider(c.Request.Context(), in.IDToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Token verified successfully", uc))
}

// Logout godoc
// @Summary Revoke every provider session of the caller
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body idTokenReq false "token; the Authorization header is used when absent"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	var in idTokenReq
	_ = c.ShouldBindJSON(&in)
	tok := in.IDToken
	if tok == "" {
		tok = auth.BearerToken(c.GetHeader("Authorization"))
	}
	if err := h.Auth.Revoke(c.Request.Context(), tok); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Logout successful", nil))
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	uc := currentUser(c)
	p, err := h.Profiles.Get(c.Request.Context(), uc.ProfileID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Current user", gin.H{
		"user":    uc,
		"profile": response.FromProfile(p),
	}))
}
