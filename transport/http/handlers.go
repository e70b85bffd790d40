package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/calyx-labs/rolodex/core"
	"github.com/calyx-labs/rolodex/service"
)

// Handlers contains the HTTP handlers for every route
type Handlers struct {
	auth         *service.AuthService
	directory    *service.DirectoryService
	personaShare *service.PersonaShareService
	contactShare *service.ContactShareService
}

// NewHandlers creates the handler set
func NewHandlers(
	auth *service.AuthService,
	directory *service.DirectoryService,
	personaShare *service.PersonaShareService,
	contactShare *service.ContactShareService,
) *Handlers {
	return &Handlers{
		auth:         auth,
		directory:    directory,
		personaShare: personaShare,
		contactShare: contactShare,
	}
}

// fail maps a service error to a transport status. Every member of the
// token error taxonomy collapses to a single unauthorized response here;
// the caller never learns which check failed.
func fail(c *gin.Context, err error) {
	switch {
	case core.IsAuthError(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, core.ErrWrongPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Password is incorrect"})
	case errors.Is(err, core.ErrUserNotFound),
		errors.Is(err, core.ErrPersonaNotFound),
		errors.Is(err, core.ErrContactNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrUsernameTaken):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Username is already taken"})
	case errors.Is(err, core.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// Register handles account creation
func (h *Handlers) Register(c *gin.Context) {
	var req core.NewUser
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": user.ID, "username": user.Username})
}

// Login handles credential login. The token is returned as bearer JSON
// and mirrored into the legacy cookie.
func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	h.setAuthCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_in": int(service.LoginTokenTTL.Seconds()),
		"user_id":    user.ID,
	})
}

// Logout revokes the presented token. Logging out with an already-expired
// token still counts as a successful logout.
func (h *Handlers) Logout(c *gin.Context) {
	token := BearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No authentication token found"})
		return
	}

	h.clearAuthCookie(c)

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		if errors.Is(err, core.ErrTokenExpired) {
			c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
			return
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Reauth exchanges a token inside its renewal window for a fresh one
func (h *Handlers) Reauth(c *gin.Context) {
	token := BearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing credentials"})
		return
	}

	fresh, err := h.auth.Reauthorize(c.Request.Context(), token)
	if err != nil {
		fail(c, err)
		return
	}

	h.setAuthCookie(c, fresh)

	c.JSON(http.StatusOK, gin.H{
		"token":      fresh,
		"token_type": "Bearer",
		"expires_in": int(service.LoginTokenTTL.Seconds()),
	})
}

// Me returns the identity of the authenticated caller
func (h *Handlers) Me(c *gin.Context) {
	claims, ok := ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Claims not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username": claims.Username,
		"user_id":  claims.UserID,
	})
}

// Contacts lists the caller's contact cards
func (h *Handlers) Contacts(c *gin.Context) {
	claims, _ := ClaimsFrom(c)

	contacts, err := h.directory.Contacts(c.Request.Context(), claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

// AddContacts creates contact cards owned by the caller
func (h *Handlers) AddContacts(c *gin.Context) {
	claims, _ := ClaimsFrom(c)

	var req []core.NewContact
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	contacts, err := h.directory.AddContacts(c.Request.Context(), claims.UserID, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"contacts": contacts})
}

// DeleteContact removes one of the caller's contact cards
func (h *Handlers) DeleteContact(c *gin.Context) {
	claims, _ := ClaimsFrom(c)

	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	if err := h.directory.RemoveContact(c.Request.Context(), claims.UserID, id); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}

// Personas lists the caller's own personas
func (h *Handlers) Personas(c *gin.Context) {
	claims, _ := ClaimsFrom(c)

	cards, err := h.directory.PersonasOf(c.Request.Context(), claims.UserID, claims.UserID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"personas": cards})
}

// PersonasOfUser lists another user's personas, private ones filtered out
func (h *Handlers) PersonasOfUser(c *gin.Context) {
	claims, _ := ClaimsFrom(c)

	ownerID, err := pathID(c, "id")
	if err != nil {
		return
	}

	cards, err := h.directory.PersonasOf(c.Request.Context(), claims.UserID, ownerID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"personas": cards})
}

// AddPersona creates a persona with its backing contact card
func (h *Handlers) AddPersona(c *gin.Context) {
	claims, _ := ClaimsFrom(c)

	var req struct {
		Name    string `json:"name" binding:"required"`
		Private bool   `json:"private"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	card, err := h.directory.AddPersona(c.Request.Context(), claims.UserID, req.Name, req.Private)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, card)
}

// Info returns a contact's free-form fields
func (h *Handlers) Info(c *gin.Context) {
	claims, _ := ClaimsFrom(c)

	contactID, err := pathID(c, "contact")
	if err != nil {
		return
	}

	fields, err := h.directory.Info(c.Request.Context(), claims.UserID, contactID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"info": fields})
}

// PutInfo upserts free-form fields on a contact
func (h *Handlers) PutInfo(c *gin.Context) {
	claims, _ := ClaimsFrom(c)

	contactID, err := pathID(c, "contact")
	if err != nil {
		return
	}

	var fields map[string]string
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.directory.PutInfo(c.Request.Context(), claims.UserID, contactID, fields); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Updated"})
}

// DeleteInfo removes named fields from a contact
func (h *Handlers) DeleteInfo(c *gin.Context) {
	claims, _ := ClaimsFrom(c)

	contactID, err := pathID(c, "contact")
	if err != nil {
		return
	}

	var req struct {
		Keys []string `json:"keys" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.directory.RemoveInfo(c.Request.Context(), claims.UserID, contactID, req.Keys); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
}

// SharePersona mints a capability token for one of the caller's personas
func (h *Handlers) SharePersona(c *gin.Context) {
	claims, _ := ClaimsFrom(c)

	personaID, err := pathID(c, "id")
	if err != nil {
		return
	}

	token, err := h.personaShare.Share(c.Request.Context(), claims.UserID, personaID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(service.GrantTokenTTL.Seconds()),
	})
}

// ShareContact mints a capability token for a contact the caller can access
func (h *Handlers) ShareContact(c *gin.Context) {
	claims, _ := ClaimsFrom(c)

	contactID, err := pathID(c, "id")
	if err != nil {
		return
	}

	token, err := h.contactShare.Share(c.Request.Context(), claims.UserID, contactID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(service.GrantTokenTTL.Seconds()),
	})
}

// Redeem turns a capability token into a grant for the caller
func (h *Handlers) Redeem(c *gin.Context) {
	claims, _ := ClaimsFrom(c)

	var req struct {
		Kind  string `json:"kind" binding:"required"`
		Token string `json:"token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	identity := core.Identity{Username: claims.Username, UserID: claims.UserID}

	var err error
	switch req.Kind {
	case "persona":
		err = h.personaShare.Redeem(c.Request.Context(), req.Token, identity)
	case "contact":
		err = h.contactShare.Redeem(c.Request.Context(), req.Token, identity)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown token kind"})
		return
	}

	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Granted"})
}

func (h *Handlers) setAuthCookie(c *gin.Context, token string) {
	c.SetCookie(AuthCookieName, token, int(service.LoginTokenTTL.Seconds()), "/", "", false, true)
}

func (h *Handlers) clearAuthCookie(c *gin.Context) {
	c.SetCookie(AuthCookieName, "", -1, "/", "", false, true)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, err
	}
	return id, nil
}
