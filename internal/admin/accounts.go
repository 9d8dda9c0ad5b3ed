package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"productcatalog/internal/models"
	"productcatalog/internal/respond"
)

func profileRow(p *models.Profile) gin.H {
	if p == nil {
		return nil
	}
	return gin.H{"id": p.ID, "bio": p.Bio, "avatar_url": p.AvatarURL, "created_at": p.CreatedAt}
}

type sellerView struct {
	site *Site
	meta *ModelAdmin
}

func (v *sellerView) admin() *ModelAdmin { return v.meta }

func sellerRow(s *models.Seller) gin.H {
	return gin.H{
		"id":         s.ID,
		"email":      s.Email,
		"store_name": s.StoreName,
		"created_at": s.CreatedAt,
	}
}

func sellerObject(s *models.Seller) gin.H {
	row := sellerRow(s)
	row["phone"] = s.Phone
	row["updated_at"] = s.UpdatedAt
	row["profile"] = profileRow(s.Profile)
	return row
}

func (v *sellerView) list(c *gin.Context) {
	serveChangelist(c, v.site, v.meta, sellerRow)
}

func (v *sellerView) detail(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	s, err := v.site.deps.Accounts.GetSeller(c.Request.Context(), id)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, v.meta.changeView(sellerObject(s)))
}

type sellerForm struct {
	Email     string  `json:"email"`
	StoreName string  `json:"store_name"`
	Phone     *string `json:"phone"`
}

func (v *sellerView) save(c *gin.Context, id uint) {
	var form sellerForm
	if err := bindJSON(c, &form); err != nil {
		v.site.fail(c, err)
		return
	}
	s := models.Seller{Base: models.Base{ID: id}, Email: form.Email, StoreName: form.StoreName, Phone: form.Phone}
	created, err := v.site.deps.Accounts.SaveSeller(c.Request.Context(), &s)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	saved(c, created, v.meta.changeView(sellerObject(&s)))
}

func (v *sellerView) create(c *gin.Context) { v.save(c, 0) }

func (v *sellerView) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	v.save(c, id)
}

func (v *sellerView) remove(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	if err := v.site.deps.Accounts.DeleteSeller(c.Request.Context(), id); err != nil {
		v.site.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type userView struct {
	site *Site
	meta *ModelAdmin
}

func (v *userView) admin() *ModelAdmin { return v.meta }

func userRow(u *models.User) gin.H {
	return gin.H{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"role":       u.Role,
		"created_at": u.CreatedAt,
	}
}

func userObject(u *models.User) gin.H {
	row := userRow(u)
	row["phone"] = u.Phone
	row["updated_at"] = u.UpdatedAt
	row["profile"] = profileRow(u.Profile)
	return row
}

func (v *userView) list(c *gin.Context) {
	serveChangelist(c, v.site, v.meta, userRow)
}

func (v *userView) detail(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	u, err := v.site.deps.Accounts.GetUser(c.Request.Context(), id)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, v.meta.changeView(userObject(u)))
}

// userForm takes a password on add; on change a non-empty password resets it.
type userForm struct {
	Username string      `json:"username"`
	Email    *string     `json:"email"`
	Phone    *string     `json:"phone"`
	Role     models.Role `json:"role"`
	Password string      `json:"password"`
}

func (v *userView) save(c *gin.Context, id uint) {
	var form userForm
	if err := bindJSON(c, &form); err != nil {
		v.site.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	u := models.User{Base: models.Base{ID: id}, Username: form.Username, Email: form.Email, Phone: form.Phone, Role: form.Role}
	created, err := v.site.deps.Accounts.SaveUser(ctx, &u, form.Password)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	if !created && form.Password != "" {
		if err := v.site.deps.Accounts.SetPassword(ctx, u.ID, form.Password); err != nil {
			v.site.fail(c, err)
			return
		}
	}
	saved(c, created, v.meta.changeView(userObject(&u)))
}

func (v *userView) create(c *gin.Context) { v.save(c, 0) }

func (v *userView) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	v.save(c, id)
}

func (v *userView) remove(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	if err := v.site.deps.Accounts.DeleteUser(c.Request.Context(), id); err != nil {
		v.site.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
