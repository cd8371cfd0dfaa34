package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/storefront/domain"
)

func seedPromo(t *testing.T, env *testEnv, p *domain.PromoCode) {
	t.Helper()
	require.NoError(t, env.store.Promos.Create(context.Background(), p))
}

func TestValidatePercentageWithCap(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	maximum := mustDecimal("50")
	seedPromo(t, env, &domain.PromoCode{
		Code:            "SAVE20",
		DiscountType:    domain.DiscountPercentage,
		DiscountValue:   mustDecimal("20"),
		MaximumDiscount: &maximum,
		MaxUsesPerUser:  1,
		IsActive:        true,
	})

	discount, err := env.promos.Validate(ctx, "save20", mustDecimal("1000"), 1, 0)
	require.NoError(t, err)
	assert.True(t, discount.Equal(mustDecimal("50")))
}

func TestValidateErrors(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	seedPromo(t, env, &domain.PromoCode{
		Code:           "STRICT",
		DiscountType:   domain.DiscountFixed,
		DiscountValue:  mustDecimal("10"),
		MinimumOrder:   mustDecimal("100"),
		MaxUsesPerUser: 1,
		IsActive:       true,
	})

	_, err := env.promos.Validate(ctx, "missing", mustDecimal("200"), 1, 0)
	assert.ErrorIs(t, err, domain.ErrPromoNotFound)

	_, err = env.promos.Validate(ctx, "STRICT", mustDecimal("99"), 1, 0)
	assert.ErrorIs(t, err, domain.ErrMinimumOrderNotMet)

	_, err = env.promos.Validate(ctx, "STRICT", mustDecimal("200"), 1, 1)
	assert.ErrorIs(t, err, domain.ErrUsageLimitExceeded)
}

func TestValidateDoesNotConsumeUsage(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	seedPromo(t, env, &domain.PromoCode{
		Code:           "READONLY",
		DiscountType:   domain.DiscountFixed,
		DiscountValue:  mustDecimal("5"),
		MaxUsesPerUser: 1,
		IsActive:       true,
	})

	for i := 0; i < 3; i++ {
		_, err := env.promos.Validate(ctx, "READONLY", mustDecimal("50"), 1, 0)
		require.NoError(t, err)
	}
	p, err := env.store.Promos.FindByCode(ctx, "READONLY")
	require.NoError(t, err)
	assert.Zero(t, p.UsedCount)
}

func TestRedeemIncrementsUsage(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	seedPromo(t, env, &domain.PromoCode{
		Code:           "COMMIT",
		DiscountType:   domain.DiscountFixed,
		DiscountValue:  mustDecimal("5"),
		MaxUsesPerUser: 1,
		IsActive:       true,
	})

	p, err := env.promos.Redeem(ctx, "commit")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.UsedCount)
}

func TestUpdateKeepsUsageCount(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	maxUses := int64(2)
	seedPromo(t, env, &domain.PromoCode{
		Code:           "CAP",
		DiscountType:   domain.DiscountFixed,
		DiscountValue:  mustDecimal("5"),
		MaxUses:        &maxUses,
		MaxUsesPerUser: 10,
		IsActive:       true,
	})

	for i := 0; i < 2; i++ {
		_, err := env.promos.Redeem(ctx, "CAP")
		require.NoError(t, err)
	}
	_, err := env.promos.Redeem(ctx, "CAP")
	require.ErrorIs(t, err, domain.ErrUsageLimitExceeded)

	// 管理端编辑走的是 DTO 重建的对象，used_count 字段为零值
	_, err = env.promos.Update(ctx, testActor, &domain.PromoCode{
		Code:           "CAP",
		DiscountType:   domain.DiscountFixed,
		DiscountValue:  mustDecimal("8"),
		MaxUses:        &maxUses,
		MaxUsesPerUser: 10,
		IsActive:       true,
	})
	require.NoError(t, err)

	p, err := env.store.Promos.FindByCode(ctx, "CAP")
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.UsedCount)
	assert.True(t, p.DiscountValue.Equal(mustDecimal("8")))

	// 编辑之后上限仍然封顶
	_, err = env.promos.Redeem(ctx, "CAP")
	assert.ErrorIs(t, err, domain.ErrUsageLimitExceeded)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	seedPromo(t, env, &domain.PromoCode{
		Code:           "TAKEN",
		DiscountType:   domain.DiscountFixed,
		DiscountValue:  mustDecimal("5"),
		MaxUsesPerUser: 1,
		IsActive:       true,
	})

	_, err := env.promos.Create(ctx, testActor, &domain.PromoCode{
		Code:           "taken",
		DiscountType:   domain.DiscountFixed,
		DiscountValue:  mustDecimal("9"),
		MaxUsesPerUser: 1,
		IsActive:       true,
	})
	assert.ErrorIs(t, err, domain.ErrPromoExists)
}

func TestPromoAdminLifecycleIsAudited(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	promo := &domain.PromoCode{
		Code:           "spring",
		DiscountType:   domain.DiscountPercentage,
		DiscountValue:  mustDecimal("10"),
		MaxUsesPerUser: 1,
		IsActive:       true,
	}
	created, err := env.promos.Create(ctx, testActor, promo)
	require.NoError(t, err)
	assert.Equal(t, "SPRING", created.Code)

	created.DiscountValue = mustDecimal("15")
	_, err = env.promos.Update(ctx, testActor, created)
	require.NoError(t, err)

	require.NoError(t, env.promos.Delete(ctx, testActor, "SPRING"))

	logs, err := env.audit.Query(ctx, domain.AuditFilter{TargetType: domain.TargetPromoCode})
	require.NoError(t, err)
	require.Len(t, logs, 3)
	// 倒序：删除、更新、创建
	assert.Equal(t, domain.ActionDeletePromoCode, logs[0].Action)
	assert.Equal(t, domain.ActionUpdatePromoCode, logs[1].Action)
	assert.Equal(t, domain.ActionCreatePromoCode, logs[2].Action)
}
