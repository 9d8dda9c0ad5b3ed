package models

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Role is a user role.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func (r Role) IsAdmin() bool {
	return strings.EqualFold(string(r), string(RoleAdmin))
}

// User maps the users table.
type User struct {
	Base
	Username     string   `gorm:"uniqueIndex;not null;size:150" json:"username" validate:"required,max=150"`
	Email        *string  `gorm:"uniqueIndex;size:254" json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone        *string  `gorm:"uniqueIndex;size:32" json:"phone,omitempty" validate:"omitempty,max=32"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         Role     `gorm:"type:varchar(16);not null;default:'buyer'" json:"role" validate:"omitempty,oneof=buyer seller admin"`
	Profile      *Profile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func (u User) String() string {
	return u.Username
}

// Seller maps the sellers table.
type Seller struct {
	Base
	Email     string    `gorm:"uniqueIndex;not null;size:254" json:"email" validate:"required,email,max=254"`
	StoreName string    `gorm:"size:255" json:"store_name" validate:"max=255"`
	Phone     *string   `gorm:"size:32" json:"phone,omitempty" validate:"omitempty,max=32"`
	Profile   *Profile  `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	Products  []Product `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (s Seller) String() string {
	return s.Email
}

// Profile is the one-to-one companion of exactly one User or Seller.
type Profile struct {
	Base
	UserID    *uint  `gorm:"uniqueIndex;check:chk_profiles_owner,(user_id IS NULL) <> (seller_id IS NULL)" json:"user_id,omitempty"`
	SellerID  *uint  `gorm:"uniqueIndex" json:"seller_id,omitempty"`
	Bio       string `gorm:"type:text" json:"bio"`
	AvatarURL string `gorm:"size:500" json:"avatar_url" validate:"max=500"`
}

func (p Profile) String() string {
	switch {
	case p.UserID != nil:
		return fmt.Sprintf("profile of user %d", *p.UserID)
	case p.SellerID != nil:
		return fmt.Sprintf("profile of seller %d", *p.SellerID)
	}
	return fmt.Sprintf("profile %d", p.ID)
}

// HashPassword turns a plain password into a bcrypt hash.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPassword compares a plain password against a hash.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
