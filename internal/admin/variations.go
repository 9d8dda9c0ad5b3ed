package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"productcatalog/internal/models"
	"productcatalog/internal/respond"
)

type variationView struct {
	site *Site
	meta *ModelAdmin
}

func (v *variationView) admin() *ModelAdmin { return v.meta }

func variationRow(pv *models.ProductVariation) gin.H {
	return gin.H{
		"id":              pv.ID,
		"product":         productRef(pv.ProductID, pv.Product),
		"variation_name":  pv.VariationName,
		"variation_value": pv.VariationValue,
		"price":           pv.Price.Decimal.StringFixed(2),
	}
}

func (v *variationView) list(c *gin.Context) {
	serveChangelist(c, v.site, v.meta, variationRow, "Product")
}

func (v *variationView) detail(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	pv, err := v.site.deps.Catalog.GetVariation(c.Request.Context(), id)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	respond.JSON(c, http.StatusOK, v.meta.changeView(variationRow(pv)))
}

// variationForm leaves price null to inherit the product price on save.
type variationForm struct {
	Product        uint                `json:"product"`
	VariationName  string              `json:"variation_name"`
	VariationValue string              `json:"variation_value"`
	Price          decimal.NullDecimal `json:"price"`
}

func (v *variationView) save(c *gin.Context, id uint) {
	var form variationForm
	if err := bindJSON(c, &form); err != nil {
		v.site.fail(c, err)
		return
	}
	ctx := c.Request.Context()
	pv := models.ProductVariation{
		ID:             id,
		ProductID:      form.Product,
		VariationName:  form.VariationName,
		VariationValue: form.VariationValue,
		Price:          form.Price,
	}
	if err := v.site.deps.Catalog.SaveVariation(ctx, &pv); err != nil {
		v.site.fail(c, err)
		return
	}
	stored, err := v.site.deps.Catalog.GetVariation(ctx, pv.ID)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	saved(c, id == 0, v.meta.changeView(variationRow(stored)))
}

func (v *variationView) create(c *gin.Context) {
	v.save(c, 0)
}

func (v *variationView) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	v.save(c, id)
}

func (v *variationView) remove(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		v.site.fail(c, err)
		return
	}
	if err := v.site.deps.Catalog.DeleteVariation(c.Request.Context(), id); err != nil {
		v.site.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
