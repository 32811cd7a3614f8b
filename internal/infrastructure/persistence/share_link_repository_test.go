package persistence

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/supply-portal/internal/domain/shared"
	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/erp/supply-portal/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&sharing.ShareLink{},
		&sharing.SupplyRecord{},
		&sharing.SupplyRecordItem{},
		&trade.PurchaseOrder{},
		&trade.PurchaseOrderItem{},
	))
	return db
}

func intPtr(v int) *int {
	return &v
}

func seedShareLink(t *testing.T, db *gorm.DB, accessLimit *int) *sharing.ShareLink {
	t.Helper()
	link, err := sharing.NewShareLink(uuid.New(), "AbCdEf123456", "X9z3", time.Now().Add(time.Hour), accessLimit)
	require.NoError(t, err)
	require.NoError(t, db.Create(link).Error)
	return link
}

func TestGormShareLinkRepository_Find(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormShareLinkRepository(db)
	ctx := context.Background()
	link := seedShareLink(t, db, nil)

	t.Run("by order id", func(t *testing.T) {
		got, err := repo.FindByOrderID(ctx, link.PurchaseOrderID)
		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)
	})

	t.Run("by share code", func(t *testing.T) {
		got, err := repo.FindByShareCode(ctx, "AbCdEf123456")
		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)
	})

	t.Run("unknown order translates to not found", func(t *testing.T) {
		_, err := repo.FindByOrderID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unknown code translates to not found", func(t *testing.T) {
		_, err := repo.FindByShareCode(ctx, "nosuchcode99")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("second link for the same order reports already exists", func(t *testing.T) {
		dupe, err := sharing.NewShareLink(link.PurchaseOrderID, "FreshCode9876", "X9z3", time.Now().Add(time.Hour), nil)
		require.NoError(t, err)
		err = repo.Save(ctx, dupe)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("share code existence", func(t *testing.T) {
		taken, err := repo.ShareCodeExists(ctx, "AbCdEf123456")
		require.NoError(t, err)
		assert.True(t, taken)

		free, err := repo.ShareCodeExists(ctx, "FreshCode1234")
		require.NoError(t, err)
		assert.False(t, free)
	})
}

func TestGormShareLinkRepository_ConsumeAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("limit of L allows exactly L consumptions", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormShareLinkRepository(db)
		link := seedShareLink(t, db, intPtr(3))

		successes := 0
		for i := 0; i < 10; i++ {
			ok, err := repo.ConsumeAccess(ctx, link.ID)
			require.NoError(t, err)
			if ok {
				successes++
			}
		}
		assert.Equal(t, 3, successes)

		got, err := repo.FindByOrderID(ctx, link.PurchaseOrderID)
		require.NoError(t, err)
		assert.Equal(t, 3, got.AccessCount, "counter never exceeds the limit")
	})

	t.Run("no limit means unbounded counting", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormShareLinkRepository(db)
		link := seedShareLink(t, db, nil)

		for i := 0; i < 5; i++ {
			ok, err := repo.ConsumeAccess(ctx, link.ID)
			require.NoError(t, err)
			assert.True(t, ok)
		}

		got, err := repo.FindByOrderID(ctx, link.PurchaseOrderID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.AccessCount)
	})

	t.Run("concurrent consumers never oversubscribe the limit", func(t *testing.T) {
		db := newTestDB(t)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		// A second pool connection would see its own empty :memory: database.
		sqlDB.SetMaxOpenConns(1)

		repo := NewGormShareLinkRepository(db)
		link := seedShareLink(t, db, intPtr(3))

		var wg sync.WaitGroup
		var successes int64
		errs := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repo.ConsumeAccess(ctx, link.ID)
				if err != nil {
					errs <- err
					return
				}
				if ok {
					atomic.AddInt64(&successes, 1)
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
		assert.EqualValues(t, 3, successes)
	})

	t.Run("disabled link consumes nothing", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormShareLinkRepository(db)
		link := seedShareLink(t, db, nil)
		require.NoError(t, link.Disable())
		require.NoError(t, repo.Save(ctx, link))

		ok, err := repo.ConsumeAccess(ctx, link.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

// newMockShareLinkRepo wires the repository to sqlmock so the SQL shape of
// the counter update can be asserted.
func newMockShareLinkRepo(t *testing.T) (*GormShareLinkRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormShareLinkRepository(gormDB), mock, mockDB
}

// The access-limit check must be folded into the UPDATE itself; a separate
// read would reopen the stale-counter race.
func TestGormShareLinkRepository_ConsumeAccess_SingleConditionalUpdate(t *testing.T) {
	repo, mock, mockDB := newMockShareLinkRepo(t)
	defer mockDB.Close()

	linkID := uuid.New()

	mock.ExpectExec(`UPDATE "share_links" SET .* WHERE id = .* AND disabled_at IS NULL AND \(access_limit IS NULL OR access_count < access_limit\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.ConsumeAccess(context.Background(), linkID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormShareLinkRepository_ConsumeAccess_ExhaustedRowUnaffected(t *testing.T) {
	repo, mock, mockDB := newMockShareLinkRepo(t)
	defer mockDB.Close()

	mock.ExpectExec(`UPDATE "share_links" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.ConsumeAccess(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}
