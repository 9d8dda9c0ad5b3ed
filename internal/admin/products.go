package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"productcatalog/internal/apperr"
	"productcatalog/internal/catalog"
	"productcatalog/internal/models"
	"productcatalog/internal/respond"
)

type productView struct {
	site *Site
	meta *ModelAdmin
}

func (v *productView) admin() *ModelAdmin { return v.meta }

func sellerRef(id uint, s *models.Seller) ref {
	r := ref{ID: id}
	if s != nil {
		r.Repr = s.String()
	}
	return r
}

func productRow(p *models.Product) gin.H {
	return gin.H{
		"id":         p.ID,
		"name":       p.Name,
		"price":      p.Price.StringFixed(2),
		"seller":     sellerRef(p.SellerID, p.Seller),
		"created_at": p.CreatedAt,
	}
}

func (v *productView) list(c *gin.Context) {
	serveChangelist(c, v.site, v.meta, productRow, "Seller")
}

func (v *productView) view(p *models.Product) changeView {
	cv := v.meta.changeView(gin.H{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price.StringFixed(2),
		"seller":      sellerRef(p.SellerID, p.Seller),
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	})
	for _, in := range v.meta.Inlines {
		iv := inlineView{Inline: in, Rows: []gin.H{}}
		switch in.Name {
		case "images":
			for i := range p.Images {
				iv.Rows = append(iv.Rows, imageInlineRow(&p.Images[i]))
			}
		case "variations":
			for i := range p.Variations {
				iv.Rows = append(iv.Rows, variationInlineRow(&p.Variations[i]))
			}
		}
		cv.Inlines = append(cv.Inlines, iv)
	}
	return cv
}

func imageInlineRow(img *models.ProductImage) gin.H {
	return gin.H{"id": img.ID, "image": img.Image, "url": mediaURL(img.Image), "alt_text": img.AltText}
}

func variationInlineRow(pv *models.ProductVariation) gin.H {
	return gin.H{
		"id":              pv.ID,
		"variation_name":  pv.VariationName,
		"variation_value": pv.VariationValue,
		"price":           pv.Price.Decimal.StringFixed(2),
	}
}

func (v *productView) detail(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	p, err := v.site.deps.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, v.view(p))
}

// productForm is the change form plus both inline formsets. created_at is
// read-only and never bound.
type productForm struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Price       *decimal.Decimal   `json:"price"`
	Seller      uint               `json:"seller"`
	Images      []imageFormRow     `json:"images"`
	Variations  []variationFormRow `json:"variations"`
}

// imageFormRow carries no alt_text: it is read-only in the inline.
type imageFormRow struct {
	ID     uint   `json:"id"`
	Image  string `json:"image"`
	Delete bool   `json:"delete"`
}

type variationFormRow struct {
	ID             uint                `json:"id"`
	VariationName  string              `json:"variation_name"`
	VariationValue string              `json:"variation_value"`
	Price          decimal.NullDecimal `json:"price"`
	Delete         bool                `json:"delete"`
}

func (f *productForm) product() (models.Product, error) {
	if f.Price == nil {
		return models.Product{}, apperr.New(apperr.CodeValidation, "validation failed").
			WithDetails(map[string]string{"price": "is required"})
	}
	return models.Product{
		Name:        f.Name,
		Description: f.Description,
		Price:       *f.Price,
		SellerID:    f.Seller,
	}, nil
}

// inlines converts the formset rows. Blank extra rows are skipped, as are
// delete marks on rows that were never saved.
func (f *productForm) inlines() catalog.Inlines {
	var in catalog.Inlines
	for _, r := range f.Images {
		switch {
		case r.Delete:
			if r.ID != 0 {
				in.DeleteImages = append(in.DeleteImages, r.ID)
			}
		case r.ID == 0 && r.Image == "":
		default:
			in.Images = append(in.Images, models.ProductImage{ID: r.ID, Image: r.Image})
		}
	}
	for _, r := range f.Variations {
		switch {
		case r.Delete:
			if r.ID != 0 {
				in.DeleteVariations = append(in.DeleteVariations, r.ID)
			}
		case r.ID == 0 && r.VariationName == "" && r.VariationValue == "" && !r.Price.Valid:
		default:
			in.Variations = append(in.Variations, models.ProductVariation{
				ID:             r.ID,
				VariationName:  r.VariationName,
				VariationValue: r.VariationValue,
				Price:          r.Price,
			})
		}
	}
	return in
}

func (v *productView) save(c *gin.Context, id uint) {
	var form productForm
	if err := bindJSON(c, &form); err != nil {
		v.site.fail(c, err)
		return
	}
	p, err := form.product()
	if err != nil {
		v.site.fail(c, err)
		return
	}
	p.ID = id
	created, err := v.site.deps.Catalog.SaveProductWithInlines(c.Request.Context(), &p, form.inlines())
	if err != nil {
		v.site.fail(c, err)
		return
	}
	saved(c, created, v.view(&p))
}

func (v *productView) create(c *gin.Context) {
	v.save(c, 0)
}

func (v *productView) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	v.save(c, id)
}

func (v *productView) remove(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	if err := v.site.deps.Catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		v.site.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
