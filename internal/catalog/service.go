package catalog

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"productcatalog/internal/apperr"
	"productcatalog/internal/db"
	"productcatalog/internal/logger"
	"productcatalog/internal/models"
)

// Service validates and persists catalog entities. Writes that touch more
// than one row run in a single transaction.
type Service struct {
	db   *db.Client
	repo *Repository
	logg *logger.Logger
}

func NewService(client *db.Client, logg *logger.Logger) *Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{db: client, repo: NewRepository(client.DB(nil)), logg: logg}
}

func (s *Service) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID != 0 {
		return apperr.New(apperr.CodeValidation, "new product must not carry an id")
	}
	if err := models.Validate(p); err != nil {
		return err
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"product_id": p.ID, "seller_id": p.SellerID})
	s.logg.Info(ctx, "product.created")
	return nil
}

// UpdateProduct writes name, description, price and seller. p is reloaded
// afterwards so CreatedAt reflects the stored, unchanged value.
func (s *Service) UpdateProduct(ctx context.Context, p *models.Product) error {
	if err := models.Validate(p); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateProduct(ctx, p); err != nil {
			return err
		}
		stored, err := repo.FindProduct(ctx, p.ID)
		if err != nil {
			return err
		}
		*p = *stored
		return nil
	})
}

func (s *Service) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return s.repo.GetProductDetail(ctx, id)
}

func (s *Service) ListProductsBySeller(ctx context.Context, sellerID uint) ([]models.Product, error) {
	return s.repo.ListProductsBySeller(ctx, sellerID)
}

// DeleteProduct removes the product; images and variations go with it
// through the foreign-key cascade.
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", id), "product.deleted")
	return nil
}

func (s *Service) AddImage(ctx context.Context, img *models.ProductImage) error {
	if img.ID != 0 {
		return apperr.New(apperr.CodeValidation, "new image must not carry an id")
	}
	if err := models.Validate(img); err != nil {
		return err
	}
	return s.repo.CreateImage(ctx, img)
}

// UpdateImage changes the stored image path and alt text.
func (s *Service) UpdateImage(ctx context.Context, img *models.ProductImage) error {
	if err := models.Validate(img); err != nil {
		return err
	}
	return s.repo.UpdateImage(ctx, img, map[string]any{
		"image":    img.Image,
		"alt_text": img.AltText,
	})
}

func (s *Service) GetImage(ctx context.Context, id uint) (*models.ProductImage, error) {
	return s.repo.FindImage(ctx, id)
}

func (s *Service) ListImages(ctx context.Context, productID uint) ([]models.ProductImage, error) {
	return s.repo.ListImages(ctx, productID)
}

func (s *Service) DeleteImage(ctx context.Context, id uint) error {
	return s.repo.DeleteImage(ctx, id)
}

// SaveVariation inserts (zero id) or updates v. An unset price is copied from
// the parent product inside the same transaction as the write.
func (s *Service) SaveVariation(ctx context.Context, v *models.ProductVariation) error {
	if err := models.Validate(v); err != nil {
		return err
	}
	defaulted := !v.Price.Valid
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).SaveVariation(ctx, v)
	})
	if err != nil {
		return err
	}
	if defaulted {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"variation_id": v.ID,
			"product_id":   v.ProductID,
			"price":        v.Price.Decimal.StringFixed(2),
		})
		s.logg.Debug(ctx, "variation.price_defaulted")
	}
	return nil
}

func (s *Service) GetVariation(ctx context.Context, id uint) (*models.ProductVariation, error) {
	return s.repo.FindVariation(ctx, id)
}

func (s *Service) ListVariations(ctx context.Context, productID uint) ([]models.ProductVariation, error) {
	return s.repo.ListVariations(ctx, productID)
}

func (s *Service) DeleteVariation(ctx context.Context, id uint) error {
	return s.repo.DeleteVariation(ctx, id)
}

// Inlines are the image and variation rows edited together with a product.
// Rows with a zero id are inserted; the Delete lists name rows to remove.
type Inlines struct {
	Images           []models.ProductImage
	DeleteImages     []uint
	Variations       []models.ProductVariation
	DeleteVariations []uint
}

func (in Inlines) empty() bool {
	return len(in.Images) == 0 && len(in.DeleteImages) == 0 &&
		len(in.Variations) == 0 && len(in.DeleteVariations) == 0
}

// SaveProductInlines applies the inline rows of one product atomically.
// Rows with an id must belong to productID. Inline image rows only carry the
// image path; alt text is read-only there.
func (s *Service) SaveProductInlines(ctx context.Context, productID uint, in Inlines) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return applyInlines(ctx, tx, s.repo.WithTx(tx), productID, in)
	})
}

// SaveProductWithInlines creates (zero id) or updates p and applies its
// inline rows in one transaction, so a bad inline row leaves the product
// untouched as well.
func (s *Service) SaveProductWithInlines(ctx context.Context, p *models.Product, in Inlines) (created bool, err error) {
	if err := models.Validate(p); err != nil {
		return false, err
	}
	created = p.ID == 0
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if created {
			if err := repo.CreateProduct(ctx, p); err != nil {
				return err
			}
		} else if err := repo.UpdateProduct(ctx, p); err != nil {
			return err
		}
		if !in.empty() {
			if err := applyInlines(ctx, tx, repo, p.ID, in); err != nil {
				return err
			}
		}
		stored, err := repo.GetProductDetail(ctx, p.ID)
		if err != nil {
			return err
		}
		*p = *stored
		return nil
	})
	if err != nil {
		if created {
			p.ID = 0
		}
		return false, err
	}
	if created {
		ctx = s.logg.WithFields(ctx, map[string]any{"product_id": p.ID, "seller_id": p.SellerID})
		s.logg.Info(ctx, "product.created")
	}
	return created, nil
}

func applyInlines(ctx context.Context, tx *gorm.DB, repo *Repository, productID uint, in Inlines) error {
	if _, err := repo.FindProduct(ctx, productID); err != nil {
		return err
	}

	for _, id := range in.DeleteImages {
		if err := ensureChild(ctx, tx, &models.ProductImage{}, id, productID); err != nil {
			return err
		}
		if err := repo.DeleteImage(ctx, id); err != nil {
			return err
		}
	}
	for i := range in.Images {
		img := &in.Images[i]
		img.ProductID = productID
		if err := models.Validate(img); err != nil {
			return err
		}
		if img.ID == 0 {
			if err := repo.CreateImage(ctx, img); err != nil {
				return err
			}
			continue
		}
		if err := ensureChild(ctx, tx, &models.ProductImage{}, img.ID, productID); err != nil {
			return err
		}
		if err := repo.UpdateImage(ctx, img, map[string]any{"image": img.Image}); err != nil {
			return err
		}
	}

	for _, id := range in.DeleteVariations {
		if err := ensureChild(ctx, tx, &models.ProductVariation{}, id, productID); err != nil {
			return err
		}
		if err := repo.DeleteVariation(ctx, id); err != nil {
			return err
		}
	}
	for i := range in.Variations {
		v := &in.Variations[i]
		if v.ID != 0 {
			if err := ensureChild(ctx, tx, &models.ProductVariation{}, v.ID, productID); err != nil {
				return err
			}
		}
		v.ProductID = productID
		if err := models.Validate(v); err != nil {
			return err
		}
		if err := repo.SaveVariation(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func ensureChild(ctx context.Context, tx *gorm.DB, model any, id, productID uint) error {
	var n int64
	err := tx.WithContext(ctx).Model(model).Where("id = ? AND product_id = ?", id, productID).Count(&n).Error
	if err != nil {
		return db.Translate(err, "load inline row")
	}
	if n == 0 {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("row %d does not belong to product %d", id, productID))
	}
	return nil
}
