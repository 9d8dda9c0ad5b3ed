package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"productcatalog/internal/apperr"
)

// ImageUploadDir is the media sub-directory product images are stored under.
const ImageUploadDir = "product_images"

// Product maps the products table.
type Product struct {
	Base
	Name        string             `gorm:"size:255;not null" json:"name" validate:"required,max=255"`
	Description string             `gorm:"type:text;not null" json:"description"`
	Price       decimal.Decimal    `gorm:"type:numeric(10,2);not null" json:"price" validate:"money"`
	SellerID    uint               `gorm:"index;not null" json:"seller_id" validate:"required"`
	Seller      *Seller            `json:"seller,omitempty"`
	Images      []ProductImage     `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	Variations  []ProductVariation `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variations,omitempty"`
}

func (p Product) String() string {
	return p.Name
}

// ProductImage maps the product_images table.
type ProductImage struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	ProductID uint     `gorm:"index;not null" json:"product_id" validate:"required"`
	Product   *Product `json:"product,omitempty"`
	Image     string   `gorm:"size:500;not null" json:"image" validate:"required,max=500"` // path relative to the media root, e.g. "product_images/abc.jpg"
	AltText   string   `gorm:"size:255;not null;default:''" json:"alt_text" validate:"max=255"`
}

// String always contains "-img-" followed by the row id.
func (i ProductImage) String() string {
	return fmt.Sprintf("ProductImage object (%d)-img-%d", i.ID, i.ID)
}

// ProductVariation maps the product_variations table. Price may be left unset on
// input; BeforeSave fills it from the parent product so the column is never null.
type ProductVariation struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	ProductID      uint                `gorm:"index;not null" json:"product_id" validate:"required"`
	Product        *Product            `json:"product,omitempty"`
	VariationName  string              `gorm:"size:255;not null" json:"variation_name" validate:"required,max=255"`
	VariationValue string              `gorm:"size:255;not null" json:"variation_value" validate:"required,max=255"`
	Price          decimal.NullDecimal `gorm:"type:numeric(10,2);not null" json:"price" validate:"omitempty,money"`
}

func (v ProductVariation) String() string {
	return fmt.Sprintf("%s: %s", v.VariationName, v.VariationValue)
}

// BeforeSave runs on insert and update. The parent row is locked for the
// read so the copied price matches the one committed alongside this write.
func (v *ProductVariation) BeforeSave(tx *gorm.DB) error {
	if v.Price.Valid {
		return nil
	}
	price, err := parentPrice(tx, v.ProductID)
	if err != nil {
		return err
	}
	v.Price = decimal.NewNullDecimal(price)
	return nil
}

func parentPrice(tx *gorm.DB, productID uint) (decimal.Decimal, error) {
	var parent Product
	err := tx.Session(&gorm.Session{NewDB: true}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "price").
		First(&parent, "id = ?", productID).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Decimal{}, apperr.Wrap(apperr.CodeNotFound, err, fmt.Sprintf("product %d not found", productID))
	}
	if err != nil {
		return decimal.Decimal{}, err
	}
	return parent.Price, nil
}
