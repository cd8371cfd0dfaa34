package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SUMMER20", NormalizeCode("  summer20 "))
	assert.Equal(t, "SAVE10", NormalizeCode("Save10"))
}

func TestPromoDiscount(t *testing.T) {
	t.Run("percentage", func(t *testing.T) {
		p := &PromoCode{DiscountType: DiscountPercentage, DiscountValue: dec("20")}
		assert.True(t, p.Discount(dec("150")).Equal(dec("30")))
	})

	t.Run("percentage capped by maximum discount", func(t *testing.T) {
		maximum := dec("50")
		p := &PromoCode{DiscountType: DiscountPercentage, DiscountValue: dec("20"), MaximumDiscount: &maximum}
		assert.True(t, p.Discount(dec("1000")).Equal(dec("50")))
	})

	t.Run("fixed", func(t *testing.T) {
		p := &PromoCode{DiscountType: DiscountFixed, DiscountValue: dec("15")}
		assert.True(t, p.Discount(dec("100")).Equal(dec("15")))
	})

	t.Run("fixed never exceeds subtotal", func(t *testing.T) {
		p := &PromoCode{DiscountType: DiscountFixed, DiscountValue: dec("15")}
		assert.True(t, p.Discount(dec("9.99")).Equal(dec("9.99")))
	})
}

func TestPromoCheckUsable(t *testing.T) {
	maxUses := int64(100)
	base := PromoCode{
		DiscountType:   DiscountPercentage,
		DiscountValue:  dec("10"),
		MinimumOrder:   dec("50"),
		MaxUses:        &maxUses,
		MaxUsesPerUser: 1,
		IsActive:       true,
	}

	t.Run("usable", func(t *testing.T) {
		p := base
		assert.NoError(t, p.CheckUsable(dec("60"), 0))
	})

	t.Run("inactive reads as not found", func(t *testing.T) {
		p := base
		p.IsActive = false
		assert.ErrorIs(t, p.CheckUsable(dec("60"), 0), ErrPromoNotFound)
	})

	t.Run("below minimum order", func(t *testing.T) {
		p := base
		assert.ErrorIs(t, p.CheckUsable(dec("49.99"), 0), ErrMinimumOrderNotMet)
	})

	t.Run("total usage limit reached", func(t *testing.T) {
		p := base
		p.UsedCount = maxUses
		assert.ErrorIs(t, p.CheckUsable(dec("60"), 0), ErrUsageLimitExceeded)
	})

	t.Run("per-user limit reached", func(t *testing.T) {
		p := base
		assert.ErrorIs(t, p.CheckUsable(dec("60"), 1), ErrUsageLimitExceeded)
	})

	t.Run("unlimited total uses", func(t *testing.T) {
		p := base
		p.MaxUses = nil
		p.UsedCount = 1 << 20
		assert.NoError(t, p.CheckUsable(dec("60"), 0))
	})
}
