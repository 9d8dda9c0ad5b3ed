package accounts

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"productcatalog/internal/apperr"
	"productcatalog/internal/db"
	"productcatalog/internal/logger"
	"productcatalog/internal/models"
)

// Service creates, updates and authenticates users and sellers. Creation
// runs the configured post-create hooks in the inserting transaction.
type Service struct {
	db    *db.Client
	logg  *logger.Logger
	hooks []PostCreateHook
}

func NewService(client *db.Client, logg *logger.Logger, hooks ...PostCreateHook) *Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{db: client, logg: logg, hooks: hooks}
}

type record interface {
	GetID() uint
}

func (s *Service) create(ctx context.Context, kind OwnerKind, rec record) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(rec).Error; err != nil {
			return db.Translate(err, fmt.Sprintf("insert %s", kind))
		}
		owner := Owner{Kind: kind, ID: rec.GetID()}
		for _, hook := range s.hooks {
			if err := hook(ctx, tx, owner); err != nil {
				return db.Translate(err, fmt.Sprintf("post-create %s %d", kind, owner.ID))
			}
		}
		return db.Translate(tx.Preload("Profile").First(rec).Error, fmt.Sprintf("reload %s", kind))
	})
	if err != nil {
		return err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"kind": string(kind), "id": rec.GetID()})
	s.logg.Info(ctx, "account.created")
	return nil
}

// CreateUser hashes password, inserts u and runs the post-create hooks.
func (s *Service) CreateUser(ctx context.Context, u *models.User, password string) error {
	if u.ID != 0 {
		return apperr.New(apperr.CodeValidation, "new user must not carry an id")
	}
	if u.Role == "" {
		u.Role = models.RoleBuyer
	}
	if password == "" {
		return apperr.New(apperr.CodeValidation, "validation failed").WithDetails(map[string]string{"password": "is required"})
	}
	if err := models.Validate(u); err != nil {
		return err
	}
	hash, err := models.HashPassword(password)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "hash password")
	}
	u.PasswordHash = hash
	return s.create(ctx, OwnerUser, u)
}

// CreateSeller inserts s and runs the post-create hooks.
func (s *Service) CreateSeller(ctx context.Context, seller *models.Seller) error {
	if seller.ID != 0 {
		return apperr.New(apperr.CodeValidation, "new seller must not carry an id")
	}
	if err := models.Validate(seller); err != nil {
		return err
	}
	return s.create(ctx, OwnerSeller, seller)
}

// UpdateUser writes the editable columns of an existing user. Hooks never run.
func (s *Service) UpdateUser(ctx context.Context, u *models.User) error {
	if err := models.Validate(u); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		changes := map[string]any{
			"username": u.Username,
			"email":    u.Email,
			"phone":    u.Phone,
		}
		if u.Role != "" {
			changes["role"] = u.Role
		}
		res := tx.Model(&models.User{}).Where("id = ?", u.ID).Updates(changes)
		if err := res.Error; err != nil {
			return db.Translate(err, "update user")
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.CodeNotFound, fmt.Sprintf("user %d not found", u.ID))
		}
		return db.Translate(tx.Preload("Profile").First(u, u.ID).Error, "reload user")
	})
}

// UpdateSeller writes the editable columns of an existing seller. Hooks never run.
func (s *Service) UpdateSeller(ctx context.Context, seller *models.Seller) error {
	if err := models.Validate(seller); err != nil {
		return err
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Seller{}).Where("id = ?", seller.ID).Updates(map[string]any{
			"email":      seller.Email,
			"store_name": seller.StoreName,
			"phone":      seller.Phone,
		})
		if err := res.Error; err != nil {
			return db.Translate(err, "update seller")
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.CodeNotFound, fmt.Sprintf("seller %d not found", seller.ID))
		}
		return db.Translate(tx.Preload("Profile").First(seller, seller.ID).Error, "reload seller")
	})
}

// SaveSeller inserts when seller has no id and updates otherwise; created
// reports which path ran.
func (s *Service) SaveSeller(ctx context.Context, seller *models.Seller) (created bool, err error) {
	if seller.ID == 0 {
		return true, s.CreateSeller(ctx, seller)
	}
	return false, s.UpdateSeller(ctx, seller)
}

// SaveUser is SaveSeller for users; password is only used on insert.
func (s *Service) SaveUser(ctx context.Context, u *models.User, password string) (created bool, err error) {
	if u.ID == 0 {
		return true, s.CreateUser(ctx, u, password)
	}
	return false, s.UpdateUser(ctx, u)
}

// SetPassword replaces a user's password hash.
func (s *Service) SetPassword(ctx context.Context, userID uint, password string) error {
	if password == "" {
		return apperr.New(apperr.CodeValidation, "password is required")
	}
	hash, err := models.HashPassword(password)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "hash password")
	}
	res := s.db.DB(ctx).Model(&models.User{}).Where("id = ?", userID).Update("password_hash", hash)
	if res.Error != nil {
		return db.Translate(res.Error, "update password")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("user %d not found", userID))
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.DB(ctx).Preload("Profile").First(&u, id).Error; err != nil {
		return nil, db.Translate(err, fmt.Sprintf("load user %d", id))
	}
	return &u, nil
}

func (s *Service) GetSeller(ctx context.Context, id uint) (*models.Seller, error) {
	var seller models.Seller
	if err := s.db.DB(ctx).Preload("Profile").First(&seller, id).Error; err != nil {
		return nil, db.Translate(err, fmt.Sprintf("load seller %d", id))
	}
	return &seller, nil
}

// ProfileFor returns the profile owned by owner.
func (s *Service) ProfileFor(ctx context.Context, owner Owner) (*models.Profile, error) {
	var column string
	switch owner.Kind {
	case OwnerUser:
		column = "user_id"
	case OwnerSeller:
		column = "seller_id"
	default:
		return nil, apperr.New(apperr.CodeValidation, fmt.Sprintf("unknown owner kind %q", owner.Kind))
	}
	var p models.Profile
	if err := s.db.DB(ctx).Where(column+" = ?", owner.ID).First(&p).Error; err != nil {
		return nil, db.Translate(err, fmt.Sprintf("load profile of %s %d", owner.Kind, owner.ID))
	}
	return &p, nil
}

// UpdateProfile edits the descriptive profile fields; ownership is fixed.
func (s *Service) UpdateProfile(ctx context.Context, p *models.Profile) error {
	if err := models.Validate(p); err != nil {
		return err
	}
	res := s.db.DB(ctx).Model(&models.Profile{}).Where("id = ?", p.ID).Updates(map[string]any{
		"bio":        p.Bio,
		"avatar_url": p.AvatarURL,
	})
	if res.Error != nil {
		return db.Translate(res.Error, "update profile")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("profile %d not found", p.ID))
	}
	return nil
}

// DeleteUser removes the user; the store cascades to its profile.
func (s *Service) DeleteUser(ctx context.Context, id uint) error {
	return s.delete(ctx, &models.User{}, OwnerUser, id)
}

// DeleteSeller removes the seller; the store cascades to its profile and
// products, and from products to their images and variations.
func (s *Service) DeleteSeller(ctx context.Context, id uint) error {
	return s.delete(ctx, &models.Seller{}, OwnerSeller, id)
}

func (s *Service) delete(ctx context.Context, model any, kind OwnerKind, id uint) error {
	res := s.db.DB(ctx).Delete(model, id)
	if res.Error != nil {
		return db.Translate(res.Error, fmt.Sprintf("delete %s", kind))
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, fmt.Sprintf("%s %d not found", kind, id))
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"kind": string(kind), "id": id})
	s.logg.Info(ctx, "account.deleted")
	return nil
}

// Authenticate resolves ident as an email, a phone number or a username and
// checks the password.
func (s *Service) Authenticate(ctx context.Context, ident, password string) (*models.User, error) {
	ident = strings.TrimSpace(ident)
	if ident == "" || password == "" {
		return nil, apperr.New(apperr.CodeValidation, "fill all fields")
	}

	q := s.db.DB(ctx)
	switch {
	case strings.Contains(ident, "@"):
		q = q.Where("email = ?", ident)
	case strings.HasPrefix(ident, "+") || strings.IndexFunc(ident, func(r rune) bool { return r < '0' || r > '9' }) == -1:
		q = q.Where("phone = ?", ident)
	default:
		q = q.Where("username = ?", ident)
	}

	var u models.User
	if err := q.First(&u).Error; err != nil {
		if apperr.Is(db.Translate(err, "login"), apperr.CodeNotFound) {
			return nil, apperr.New(apperr.CodeUnauthorized, "invalid credentials")
		}
		return nil, db.Translate(err, "login")
	}
	if !models.CheckPassword(u.PasswordHash, password) {
		return nil, apperr.New(apperr.CodeUnauthorized, "invalid credentials")
	}
	return &u, nil
}

// EnsureAdmin makes sure username exists with the admin role. A missing user
// is created through the regular create path, so it gets a profile too.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (*models.User, error) {
	var u models.User
	err := s.db.DB(ctx).Where("username = ?", username).First(&u).Error
	switch {
	case err == nil:
		if u.Role.IsAdmin() {
			return &u, nil
		}
		u.Role = models.RoleAdmin
		if err := s.UpdateUser(ctx, &u); err != nil {
			return nil, err
		}
		return &u, nil
	case apperr.Is(db.Translate(err, "load admin"), apperr.CodeNotFound):
		u = models.User{Username: username, Role: models.RoleAdmin}
		if err := s.CreateUser(ctx, &u, password); err != nil {
			return nil, err
		}
		return &u, nil
	default:
		return nil, db.Translate(err, "load admin")
	}
}
