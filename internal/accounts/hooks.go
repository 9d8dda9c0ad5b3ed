package accounts

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"productcatalog/internal/apperr"
	"productcatalog/internal/models"
)

// OwnerKind names the record types that own a profile.
type OwnerKind string

const (
	OwnerUser   OwnerKind = "user"
	OwnerSeller OwnerKind = "seller"
)

// Owner identifies a freshly inserted user or seller.
type Owner struct {
	Kind OwnerKind
	ID   uint
}

// PostCreateHook runs inside the creating transaction right after the owner
// row is inserted. A returned error rolls the whole creation back.
type PostCreateHook func(ctx context.Context, tx *gorm.DB, owner Owner) error

// CreateProfile inserts the one profile row belonging to owner.
func CreateProfile(ctx context.Context, tx *gorm.DB, owner Owner) error {
	profile := models.Profile{}
	switch owner.Kind {
	case OwnerUser:
		profile.UserID = &owner.ID
	case OwnerSeller:
		profile.SellerID = &owner.ID
	default:
		return apperr.New(apperr.CodeInternal, fmt.Sprintf("no profile for owner kind %q", owner.Kind))
	}
	return tx.WithContext(ctx).Create(&profile).Error
}
