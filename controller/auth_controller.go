package controller

import (
	"log"
	"net/http"

	"github.com/caseboard/caseboard/middleware"
	service "github.com/caseboard/caseboard/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// AuthController manages registration, magic-link login and sessions.
type AuthController struct {
	auth  *service.AuthService
	store sessions.Store
}

func NewAuthController(auth *service.AuthService, store sessions.Store) *AuthController {
	return &AuthController{auth: auth, store: store}
}

// Register creates a pending user account.
func (c *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Name   string `json:"name" binding:"required"`
		Email  string `json:"email" binding:"required,email"`
		Reason string `json:"reason"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid registration payload", "details": err.Error()})
		return
	}

	if err := c.auth.RegisterUser(req.Name, req.Email, req.Reason); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": "Registration received, pending approval"})
}

// Login mails a magic login link to a known user. The response is the same
// whether or not mail went out, so addresses can't be probed for timing of
// content; failures still log server-side.
func (c *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email provided", "details": err.Error()})
		return
	}

	if _, err := c.auth.RequestMagicLink(req.Email); err != nil {
		log.Printf("[Login] Magic link request failed for %s: %v", req.Email, err)
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "If the address is registered, a login link has been sent"})
}

// Callback redeems a magic-link token and opens a session.
func (c *AuthController) Callback(ctx *gin.Context) {
	token := ctx.Query("token")
	if token == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Token required"})
		return
	}

	user, err := c.auth.RedeemMagicLink(token)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	session, _ := c.store.Get(ctx.Request, middleware.SessionName)
	session.Values["user_id"] = user.ID
	session.Values["email"] = user.Email
	session.Values["name"] = user.Name
	session.Values["is_admin"] = user.IsAdmin
	if err := session.Save(ctx.Request, ctx.Writer); err != nil {
		log.Printf("[Callback] Error saving session for %s: %v", user.Email, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open session"})
		return
	}

	// Land the user on the dashboard.
	ctx.Redirect(http.StatusFound, "/")
}

// Logout clears the session cookie.
func (c *AuthController) Logout(ctx *gin.Context) {
	session, _ := c.store.Get(ctx.Request, middleware.SessionName)
	session.Options.MaxAge = -1
	if err := session.Save(ctx.Request, ctx.Writer); err != nil {
		log.Printf("[Logout] Error clearing session: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear session"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me returns the logged-in user's session identity.
func (c *AuthController) Me(ctx *gin.Context) {
	session, err := c.store.Get(ctx.Request, middleware.SessionName)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userID, ok := session.Values["user_id"].(string)
	if !ok || userID == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user_id":  userID,
		"email":    session.Values["email"],
		"name":     session.Values["name"],
		"is_admin": session.Values["is_admin"],
	})
}
