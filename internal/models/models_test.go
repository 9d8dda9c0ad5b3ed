package models

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"productcatalog/internal/apperr"
)

func TestProductImageString(t *testing.T) {
	img := ProductImage{ID: 42, ProductID: 1, Image: "product_images/a.jpg"}
	s := img.String()
	assert.Contains(t, s, "-img-42")
	assert.True(t, strings.HasSuffix(s, "-img-42"))
}

func TestProductString(t *testing.T) {
	assert.Equal(t, "Desk Lamp", Product{Name: "Desk Lamp"}.String())
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter2"))
	assert.False(t, CheckPassword(hash, "hunter3"))
}

func TestRoleIsAdmin(t *testing.T) {
	assert.True(t, RoleAdmin.IsAdmin())
	assert.True(t, Role("ADMIN").IsAdmin())
	assert.False(t, RoleSeller.IsAdmin())
}

func validationDetails(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := apperr.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, apperr.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	return details
}

func TestValidateProduct(t *testing.T) {
	ok := Product{Name: "Lamp", Price: decimal.RequireFromString("19.99"), SellerID: 1}
	require.NoError(t, Validate(&ok))

	bad := Product{
		Name:  strings.Repeat("x", 256),
		Price: decimal.RequireFromString("1.999"),
	}
	details := validationDetails(t, Validate(&bad))
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "price")
	assert.Contains(t, details, "seller_id")
}

func TestValidatePriceBounds(t *testing.T) {
	cases := map[string]bool{
		"0":            true,
		"19.99":        true,
		"99999999.99":  true,
		"100000000.00": false,
		"-1.00":        false,
		"5.005":        false,
	}
	for raw, valid := range cases {
		p := Product{Name: "p", Price: decimal.RequireFromString(raw), SellerID: 1}
		err := Validate(&p)
		if valid {
			assert.NoError(t, err, raw)
		} else {
			assert.Error(t, err, raw)
		}
	}
}

func TestValidateVariationPriceOptional(t *testing.T) {
	v := ProductVariation{ProductID: 1, VariationName: "Size", VariationValue: "L"}
	require.NoError(t, Validate(&v))

	v.Price = decimal.NewNullDecimal(decimal.RequireFromString("-3"))
	details := validationDetails(t, Validate(&v))
	assert.Contains(t, details, "price")
}

func TestValidateSellerEmail(t *testing.T) {
	s := Seller{Email: "not-an-email"}
	details := validationDetails(t, Validate(&s))
	assert.Equal(t, "must be a valid email", details["email"])
}
