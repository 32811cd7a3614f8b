package handler

import (
	"context"
	"time"

	appsharing "github.com/erp/supply-portal/internal/application/sharing"
	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/erp/supply-portal/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockShareLinkRepository implements sharing.ShareLinkRepository for testing
type MockShareLinkRepository struct {
	mock.Mock
}

func (m *MockShareLinkRepository) FindByOrderID(ctx context.Context, purchaseOrderID uuid.UUID) (*sharing.ShareLink, error) {
	args := m.Called(ctx, purchaseOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sharing.ShareLink), args.Error(1)
}

func (m *MockShareLinkRepository) FindByShareCode(ctx context.Context, shareCode string) (*sharing.ShareLink, error) {
	args := m.Called(ctx, shareCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sharing.ShareLink), args.Error(1)
}

func (m *MockShareLinkRepository) ShareCodeExists(ctx context.Context, shareCode string) (bool, error) {
	args := m.Called(ctx, shareCode)
	return args.Bool(0), args.Error(1)
}

func (m *MockShareLinkRepository) Save(ctx context.Context, link *sharing.ShareLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockShareLinkRepository) ConsumeAccess(ctx context.Context, linkID uuid.UUID) (bool, error) {
	args := m.Called(ctx, linkID)
	return args.Bool(0), args.Error(1)
}

// MockSupplyRecordRepository implements sharing.SupplyRecordRepository for testing
type MockSupplyRecordRepository struct {
	mock.Mock
}

func (m *MockSupplyRecordRepository) FindByID(ctx context.Context, recordID uuid.UUID) (*sharing.SupplyRecord, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sharing.SupplyRecord), args.Error(1)
}

func (m *MockSupplyRecordRepository) FindByShare(ctx context.Context, purchaseOrderID uuid.UUID, shareCode string) ([]sharing.SupplyRecord, error) {
	args := m.Called(ctx, purchaseOrderID, shareCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sharing.SupplyRecord), args.Error(1)
}

func (m *MockSupplyRecordRepository) SumActiveQuantities(ctx context.Context, purchaseOrderID uuid.UUID, excludeRecordID *uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	args := m.Called(ctx, purchaseOrderID, excludeRecordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]decimal.Decimal), args.Error(1)
}

func (m *MockSupplyRecordRepository) Create(ctx context.Context, record *sharing.SupplyRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSupplyRecordRepository) Replace(ctx context.Context, record *sharing.SupplyRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSupplyRecordRepository) Save(ctx context.Context, record *sharing.SupplyRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockPurchaseOrderReader implements trade.PurchaseOrderReader for testing
type MockPurchaseOrderReader struct {
	mock.Mock
}

func (m *MockPurchaseOrderReader) Exists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPurchaseOrderReader) FindByID(ctx context.Context, orderID uuid.UUID) (*trade.PurchaseOrder, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderReader) FindLines(ctx context.Context, orderID uuid.UUID) ([]trade.OrderLine, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.OrderLine), args.Error(1)
}

func (m *MockPurchaseOrderReader) LockForAllocation(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

// stubScope runs the transactional function directly against the mocks
type stubScope struct {
	links   sharing.ShareLinkRepository
	records sharing.SupplyRecordRepository
	orders  trade.PurchaseOrderReader
}

func (s *stubScope) Execute(ctx context.Context, fn func(repos appsharing.TxRepositories) error) error {
	return fn(s)
}

func (s *stubScope) ShareLinks() sharing.ShareLinkRepository       { return s.links }
func (s *stubScope) SupplyRecords() sharing.SupplyRecordRepository { return s.records }
func (s *stubScope) Orders() trade.PurchaseOrderReader             { return s.orders }

// fixedClock pins Now for expiry checks
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

// noopAudit discards audit entries
type noopAudit struct{}

func (noopAudit) Log(ctx context.Context, entry sharing.AuditEntry) {}
