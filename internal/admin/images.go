package admin

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"productcatalog/internal/apperr"
	"productcatalog/internal/models"
	"productcatalog/internal/respond"
)

type imageView struct {
	site *Site
	meta *ModelAdmin
}

func (v *imageView) admin() *ModelAdmin { return v.meta }

func productRef(id uint, p *models.Product) ref {
	r := ref{ID: id}
	if p != nil {
		r.Repr = p.String()
	}
	return r
}

func imageRow(img *models.ProductImage) gin.H {
	return gin.H{
		"id":       img.ID,
		"product":  productRef(img.ProductID, img.Product),
		"alt_text": img.AltText,
		"image":    img.Image,
		"url":      mediaURL(img.Image),
	}
}

func (v *imageView) list(c *gin.Context) {
	serveChangelist(c, v.site, v.meta, imageRow, "Product")
}

func (v *imageView) detail(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	img, err := v.site.deps.Catalog.GetImage(c.Request.Context(), id)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, v.meta.changeView(imageRow(img)))
}

type imageForm struct {
	Product uint   `json:"product"`
	Image   string `json:"image"`
	AltText string `json:"alt_text"`
}

// bind reads a JSON body or a multipart form. In the multipart case the
// "image" part is a file that is stored before the row is written.
func (v *imageView) bind(c *gin.Context) (imageForm, error) {
	var form imageForm
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		err := bindJSON(c, &form)
		return form, err
	}
	if raw := c.PostForm("product"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return form, uploadError("product", "must be an id")
		}
		form.Product = uint(id)
	}
	form.AltText = c.PostForm("alt_text")
	if v.site.deps.Uploads == nil {
		return form, apperr.New(apperr.CodeInternal, "uploads are not configured")
	}
	stored, err := v.site.deps.Uploads.Save(c, "image")
	if err != nil {
		return form, err
	}
	form.Image = stored
	return form, nil
}

func (v *imageView) create(c *gin.Context) {
	form, err := v.bind(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	img := models.ProductImage{ProductID: form.Product, Image: form.Image, AltText: form.AltText}
	ctx := c.Request.Context()
	if err := v.site.deps.Catalog.AddImage(ctx, &img); err != nil {
		v.site.fail(c, err)
		return
	}
	v.respondWith(c, true, img.ID)
}

// update keeps the stored file when a multipart change carries no new one.
func (v *imageView) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	current, err := v.site.deps.Catalog.GetImage(ctx, id)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	form, err := v.bind(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	if form.Image == "" {
		form.Image = current.Image
	}
	if form.Product != 0 && form.Product != current.ProductID {
		v.site.fail(c, apperr.New(apperr.CodeValidation, "validation failed").
			WithDetails(map[string]string{"product": "cannot be changed"}))
		return
	}
	img := models.ProductImage{ID: id, ProductID: current.ProductID, Image: form.Image, AltText: form.AltText}
	if err := v.site.deps.Catalog.UpdateImage(ctx, &img); err != nil {
		v.site.fail(c, err)
		return
	}
	v.respondWith(c, false, id)
}

func (v *imageView) respondWith(c *gin.Context, created bool, id uint) {
	img, err := v.site.deps.Catalog.GetImage(c.Request.Context(), id)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	saved(c, created, v.meta.changeView(imageRow(img)))
}

func (v *imageView) remove(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	if err := v.site.deps.Catalog.DeleteImage(c.Request.Context(), id); err != nil {
		v.site.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
