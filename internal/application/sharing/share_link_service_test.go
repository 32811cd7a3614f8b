package sharing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/supply-portal/internal/domain/shared"
	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func newTestShareLink(t *testing.T, orderID uuid.UUID) *sharing.ShareLink {
	t.Helper()
	link, err := sharing.NewShareLink(orderID, "AbCdEf123456", "X9z3", time.Now().Add(24*time.Hour), nil)
	require.NoError(t, err)
	return link
}

func TestShareLinkService_Create(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("creates link with generated codes", func(t *testing.T) {
		links := new(MockShareLinkRepository)
		orders := new(MockPurchaseOrderReader)

		orders.On("Exists", ctx, orderID).Return(true, nil)
		links.On("FindByOrderID", ctx, orderID).Return(nil, shared.ErrNotFound)
		links.On("ShareCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil)
		links.On("Save", ctx, mock.AnythingOfType("*sharing.ShareLink")).Return(nil)

		svc := NewShareLinkService(links, orders, nil, nil)
		resp, err := svc.Create(ctx, orderID, "admin", ShareLinkRequest{ExpiresInHours: 48})
		require.NoError(t, err)

		assert.Equal(t, orderID, resp.PurchaseOrderID)
		assert.Len(t, resp.ShareCode, sharing.ShareCodeLength)
		assert.Len(t, resp.ExtractCode, sharing.ExtractCodeLength, "extract code generated when blank")
		assert.Equal(t, 0, resp.AccessCount)
		links.AssertExpectations(t)
	})

	t.Run("keeps caller-provided extract code", func(t *testing.T) {
		links := new(MockShareLinkRepository)
		orders := new(MockPurchaseOrderReader)

		orders.On("Exists", ctx, orderID).Return(true, nil)
		links.On("FindByOrderID", ctx, orderID).Return(nil, shared.ErrNotFound)
		links.On("ShareCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil)
		links.On("Save", ctx, mock.AnythingOfType("*sharing.ShareLink")).Return(nil)

		svc := NewShareLinkService(links, orders, nil, nil)
		resp, err := svc.Create(ctx, orderID, "admin", ShareLinkRequest{ExpiresInHours: 1, ExtractCode: "Ab12", AccessLimit: intPtr(5)})
		require.NoError(t, err)

		assert.Equal(t, "Ab12", resp.ExtractCode)
		assert.Equal(t, 5, *resp.AccessLimit)
	})

	t.Run("not found when order is missing", func(t *testing.T) {
		links := new(MockShareLinkRepository)
		orders := new(MockPurchaseOrderReader)

		orders.On("Exists", ctx, orderID).Return(false, nil)

		svc := NewShareLinkService(links, orders, nil, nil)
		_, err := svc.Create(ctx, orderID, "admin", ShareLinkRequest{ExpiresInHours: 1})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("conflict when a link already exists", func(t *testing.T) {
		links := new(MockShareLinkRepository)
		orders := new(MockPurchaseOrderReader)

		orders.On("Exists", ctx, orderID).Return(true, nil)
		links.On("FindByOrderID", ctx, orderID).Return(newTestShareLink(t, orderID), nil)

		svc := NewShareLinkService(links, orders, nil, nil)
		_, err := svc.Create(ctx, orderID, "admin", ShareLinkRequest{ExpiresInHours: 1})
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})

	t.Run("conflict when a concurrent create wins the insert race", func(t *testing.T) {
		links := new(MockShareLinkRepository)
		orders := new(MockPurchaseOrderReader)

		orders.On("Exists", ctx, orderID).Return(true, nil)
		links.On("FindByOrderID", ctx, orderID).Return(nil, shared.ErrNotFound)
		links.On("ShareCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil)
		// The unique index rejects the insert even though the lookup saw
		// no existing link.
		links.On("Save", ctx, mock.AnythingOfType("*sharing.ShareLink")).Return(shared.ErrAlreadyExists)

		svc := NewShareLinkService(links, orders, nil, nil)
		_, err := svc.Create(ctx, orderID, "admin", ShareLinkRequest{ExpiresInHours: 1})
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	})

	t.Run("retries share code on collision", func(t *testing.T) {
		links := new(MockShareLinkRepository)
		orders := new(MockPurchaseOrderReader)

		orders.On("Exists", ctx, orderID).Return(true, nil)
		links.On("FindByOrderID", ctx, orderID).Return(nil, shared.ErrNotFound)
		links.On("ShareCodeExists", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()
		links.On("ShareCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
		links.On("Save", ctx, mock.AnythingOfType("*sharing.ShareLink")).Return(nil)

		svc := NewShareLinkService(links, orders, nil, nil)
		_, err := svc.Create(ctx, orderID, "admin", ShareLinkRequest{ExpiresInHours: 1})
		assert.NoError(t, err)
		links.AssertNumberOfCalls(t, "ShareCodeExists", 2)
	})

	t.Run("applies the default lifetime when no expiry is requested", func(t *testing.T) {
		links := new(MockShareLinkRepository)
		orders := new(MockPurchaseOrderReader)

		orders.On("Exists", ctx, orderID).Return(true, nil)
		links.On("FindByOrderID", ctx, orderID).Return(nil, shared.ErrNotFound)
		links.On("ShareCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil)
		links.On("Save", ctx, mock.AnythingOfType("*sharing.ShareLink")).Return(nil)

		svc := NewShareLinkService(links, orders, nil, nil)
		svc.SetDefaultExpiry(48 * time.Hour)
		resp, err := svc.Create(ctx, orderID, "admin", ShareLinkRequest{})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(48*time.Hour), resp.ExpiresAt, 5*time.Second)
	})

	t.Run("respects a configured code length", func(t *testing.T) {
		links := new(MockShareLinkRepository)
		orders := new(MockPurchaseOrderReader)

		orders.On("Exists", ctx, orderID).Return(true, nil)
		links.On("FindByOrderID", ctx, orderID).Return(nil, shared.ErrNotFound)
		links.On("ShareCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil)
		links.On("Save", ctx, mock.AnythingOfType("*sharing.ShareLink")).Return(nil)

		svc := NewShareLinkService(links, orders, nil, nil)
		svc.SetCodeLength(16)
		resp, err := svc.Create(ctx, orderID, "admin", ShareLinkRequest{ExpiresInHours: 1})
		require.NoError(t, err)
		assert.Len(t, resp.ShareCode, 16)
	})

	t.Run("logs an audit entry on success", func(t *testing.T) {
		links := new(MockShareLinkRepository)
		orders := new(MockPurchaseOrderReader)
		audit := new(MockAuditLogger)

		orders.On("Exists", ctx, orderID).Return(true, nil)
		links.On("FindByOrderID", ctx, orderID).Return(nil, shared.ErrNotFound)
		links.On("ShareCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil)
		links.On("Save", ctx, mock.AnythingOfType("*sharing.ShareLink")).Return(nil)
		audit.On("Log", ctx, mock.MatchedBy(func(e sharing.AuditEntry) bool {
			return e.Operation == "CREATE_SHARE_LINK" && e.Operator == "admin"
		})).Return()

		svc := NewShareLinkService(links, orders, audit, nil)
		_, err := svc.Create(ctx, orderID, "admin", ShareLinkRequest{ExpiresInHours: 1})
		require.NoError(t, err)
		audit.AssertExpectations(t)
	})
}

func TestShareLinkService_Configure(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("updates settings without touching code or count", func(t *testing.T) {
		link := newTestShareLink(t, orderID)
		link.AccessCount = 7
		originalCode := link.ShareCode

		links := new(MockShareLinkRepository)
		orders := new(MockPurchaseOrderReader)
		links.On("FindByOrderID", ctx, orderID).Return(link, nil)
		links.On("Save", ctx, link).Return(nil)

		svc := NewShareLinkService(links, orders, nil, nil)
		resp, err := svc.Configure(ctx, orderID, "admin", ShareLinkRequest{ExpiresInHours: 72, ExtractCode: "Qq77", AccessLimit: intPtr(3)})
		require.NoError(t, err)

		assert.Equal(t, originalCode, resp.ShareCode)
		assert.Equal(t, 7, resp.AccessCount)
		assert.Equal(t, "Qq77", resp.ExtractCode)
	})

	t.Run("not found when no link exists", func(t *testing.T) {
		links := new(MockShareLinkRepository)
		orders := new(MockPurchaseOrderReader)
		links.On("FindByOrderID", ctx, orderID).Return(nil, shared.ErrNotFound)

		svc := NewShareLinkService(links, orders, nil, nil)
		_, err := svc.Configure(ctx, orderID, "admin", ShareLinkRequest{ExpiresInHours: 1})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestShareLinkService_Disable(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("disables the link", func(t *testing.T) {
		link := newTestShareLink(t, orderID)
		links := new(MockShareLinkRepository)
		orders := new(MockPurchaseOrderReader)
		links.On("FindByOrderID", ctx, orderID).Return(link, nil)
		links.On("Save", ctx, link).Return(nil)

		svc := NewShareLinkService(links, orders, nil, nil)
		require.NoError(t, svc.Disable(ctx, orderID, "admin"))
		assert.True(t, link.IsDisabled())
	})

	t.Run("disabling twice fails", func(t *testing.T) {
		link := newTestShareLink(t, orderID)
		require.NoError(t, link.Disable())

		links := new(MockShareLinkRepository)
		orders := new(MockPurchaseOrderReader)
		links.On("FindByOrderID", ctx, orderID).Return(link, nil)

		svc := NewShareLinkService(links, orders, nil, nil)
		assert.Error(t, svc.Disable(ctx, orderID, "admin"))
	})
}

func TestShareLinkService_Get(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	t.Run("returns disabled and expired links too", func(t *testing.T) {
		link := newTestShareLink(t, orderID)
		require.NoError(t, link.Disable())

		links := new(MockShareLinkRepository)
		orders := new(MockPurchaseOrderReader)
		links.On("FindByOrderID", ctx, orderID).Return(link, nil)

		svc := NewShareLinkService(links, orders, nil, nil)
		resp, err := svc.Get(ctx, orderID)
		require.NoError(t, err)
		assert.True(t, resp.Disabled)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		links := new(MockShareLinkRepository)
		orders := new(MockPurchaseOrderReader)
		links.On("FindByOrderID", ctx, orderID).Return(nil, errors.New("db down"))

		svc := NewShareLinkService(links, orders, nil, nil)
		_, err := svc.Get(ctx, orderID)
		assert.Error(t, err)
	})
}
