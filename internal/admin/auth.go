package admin

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"productcatalog/internal/apperr"
	"productcatalog/internal/config"
	"productcatalog/internal/models"
	"productcatalog/internal/respond"
)

const (
	sessionUserKey = "admin_user_id"
	currentUserKey = "currentUser"
)

// SessionMiddleware installs the signed cookie store the admin login uses.
func SessionMiddleware(cfg config.SessionConfig, secure bool) gin.HandlerFunc {
	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/admin",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(cfg.CookieName, store)
}

type loginForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// login accepts a username, email or phone plus password. Only admins get a
// session.
func (s *Site) login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		s.fail(c, apperr.Wrap(apperr.CodeValidation, err, "malformed login form"))
		return
	}
	ctx := c.Request.Context()
	u, err := s.deps.Accounts.Authenticate(ctx, form.Username, form.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !u.Role.IsAdmin() {
		s.logg.Warn(s.logg.WithUserID(ctx, u.ID), "admin.login_denied")
		s.fail(c, apperr.New(apperr.CodeForbidden, "admin role required"))
		return
	}

	sess := sessions.Default(c)
	sess.Set(sessionUserKey, u.ID)
	if err := sess.Save(); err != nil {
		s.fail(c, apperr.Wrap(apperr.CodeInternal, err, "save session"))
		return
	}
	s.logg.Info(s.logg.WithUserID(ctx, u.ID), "admin.login")
	respond.JSON(c, http.StatusOK, gin.H{"user": u})
}

func (s *Site) logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/admin", MaxAge: -1})
	_ = sess.Save()
	c.Status(http.StatusNoContent)
}

// requireAdmin loads the session user and lets only admins through.
func (s *Site) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		id, ok := sess.Get(sessionUserKey).(uint)
		if !ok || id == 0 {
			s.fail(c, apperr.New(apperr.CodeUnauthorized, "login required"))
			return
		}
		u, err := s.deps.Accounts.GetUser(c.Request.Context(), id)
		if err != nil {
			if apperr.Is(err, apperr.CodeNotFound) {
				sess.Clear()
				_ = sess.Save()
				s.fail(c, apperr.New(apperr.CodeUnauthorized, "login required"))
				return
			}
			s.fail(c, err)
			return
		}
		if !u.Role.IsAdmin() {
			s.fail(c, apperr.New(apperr.CodeForbidden, "admin role required"))
			return
		}
		c.Set(currentUserKey, u)
		c.Request = c.Request.WithContext(s.logg.WithUserID(c.Request.Context(), u.ID))
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(currentUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}
