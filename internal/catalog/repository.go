package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"productcatalog/internal/apperr"
	"productcatalog/internal/db"
	"productcatalog/internal/models"
)

// Repository holds the raw product, image and variation queries. It is bound
// either to the pool or to a transaction via WithTx.
type Repository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *Repository) CreateProduct(ctx context.Context, p *models.Product) error {
	return db.Translate(r.conn(ctx).Omit(clause.Associations).Create(p).Error, "insert product")
}

// UpdateProduct rewrites the editable columns; created_at is create-only on the model.
func (r *Repository) UpdateProduct(ctx context.Context, p *models.Product) error {
	res := r.conn(ctx).Model(&models.Product{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
		"seller_id":   p.SellerID,
	})
	if res.Error != nil {
		return db.Translate(res.Error, "update product")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("product %d not found", p.ID))
	}
	return nil
}

func (r *Repository) FindProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.conn(ctx).First(&p, id).Error; err != nil {
		return nil, db.Translate(err, fmt.Sprintf("load product %d", id))
	}
	return &p, nil
}

// GetProductDetail loads the product with its seller, images and variations.
func (r *Repository) GetProductDetail(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := r.conn(ctx).
		Preload("Seller").
		Preload("Images", func(q *gorm.DB) *gorm.DB {
			return q.Order("id ASC")
		}).
		Preload("Variations", func(q *gorm.DB) *gorm.DB {
			return q.Order("variation_name ASC, id ASC")
		}).
		First(&p, id).
		Error
	if err != nil {
		return nil, db.Translate(err, fmt.Sprintf("load product %d", id))
	}
	return &p, nil
}

// ListProductsBySeller returns the seller's products, newest first.
func (r *Repository) ListProductsBySeller(ctx context.Context, sellerID uint) ([]models.Product, error) {
	var rows []models.Product
	err := r.conn(ctx).Where("seller_id = ?", sellerID).Order("created_at DESC, id DESC").Find(&rows).Error
	return rows, db.Translate(err, "list products")
}

func (r *Repository) DeleteProduct(ctx context.Context, id uint) error {
	res := r.conn(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return db.Translate(res.Error, "delete product")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("product %d not found", id))
	}
	return nil
}

func (r *Repository) CreateImage(ctx context.Context, img *models.ProductImage) error {
	return db.Translate(r.conn(ctx).Omit(clause.Associations).Create(img).Error, "insert product image")
}

func (r *Repository) UpdateImage(ctx context.Context, img *models.ProductImage, columns map[string]any) error {
	res := r.conn(ctx).Model(&models.ProductImage{}).Where("id = ? AND product_id = ?", img.ID, img.ProductID).Updates(columns)
	if res.Error != nil {
		return db.Translate(res.Error, "update product image")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("product image %d not found", img.ID))
	}
	return nil
}

func (r *Repository) FindImage(ctx context.Context, id uint) (*models.ProductImage, error) {
	var img models.ProductImage
	if err := r.conn(ctx).Preload("Product").First(&img, id).Error; err != nil {
		return nil, db.Translate(err, fmt.Sprintf("load product image %d", id))
	}
	return &img, nil
}

func (r *Repository) ListImages(ctx context.Context, productID uint) ([]models.ProductImage, error) {
	var rows []models.ProductImage
	err := r.conn(ctx).Where("product_id = ?", productID).Order("id ASC").Find(&rows).Error
	return rows, db.Translate(err, "list product images")
}

func (r *Repository) DeleteImage(ctx context.Context, id uint) error {
	res := r.conn(ctx).Delete(&models.ProductImage{}, id)
	if res.Error != nil {
		return db.Translate(res.Error, "delete product image")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("product image %d not found", id))
	}
	return nil
}

// SaveVariation inserts or updates v. The model's BeforeSave fills an unset
// price from the parent product.
func (r *Repository) SaveVariation(ctx context.Context, v *models.ProductVariation) error {
	q := r.conn(ctx).Omit(clause.Associations)
	if v.ID == 0 {
		return db.Translate(q.Create(v).Error, "insert product variation")
	}
	var exists int64
	if err := r.conn(ctx).Model(&models.ProductVariation{}).Where("id = ?", v.ID).Count(&exists).Error; err != nil {
		return db.Translate(err, "load product variation")
	}
	if exists == 0 {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("product variation %d not found", v.ID))
	}
	return db.Translate(q.Save(v).Error, "update product variation")
}

func (r *Repository) FindVariation(ctx context.Context, id uint) (*models.ProductVariation, error) {
	var v models.ProductVariation
	if err := r.conn(ctx).Preload("Product").First(&v, id).Error; err != nil {
		return nil, db.Translate(err, fmt.Sprintf("load product variation %d", id))
	}
	return &v, nil
}

func (r *Repository) ListVariations(ctx context.Context, productID uint) ([]models.ProductVariation, error) {
	var rows []models.ProductVariation
	err := r.conn(ctx).Where("product_id = ?", productID).Order("variation_name ASC, id ASC").Find(&rows).Error
	return rows, db.Translate(err, "list product variations")
}

func (r *Repository) DeleteVariation(ctx context.Context, id uint) error {
	res := r.conn(ctx).Delete(&models.ProductVariation{}, id)
	if res.Error != nil {
		return db.Translate(res.Error, "delete product variation")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("product variation %d not found", id))
	}
	return nil
}
