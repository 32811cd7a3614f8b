package sharing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestShareLink(t *testing.T) *ShareLink {
	t.Helper()
	link, err := NewShareLink(uuid.New(), "AbCdEf123456", "X9z3", time.Now().Add(24*time.Hour), nil)
	require.NoError(t, err)
	return link
}

func intPtr(v int) *int {
	return &v
}

func TestNewShareLink(t *testing.T) {
	orderID := uuid.New()
	expiry := time.Now().Add(48 * time.Hour)

	t.Run("creates valid link", func(t *testing.T) {
		link, err := NewShareLink(orderID, "AbCdEf123456", "a1B2", expiry, intPtr(10))
		require.NoError(t, err)
		assert.Equal(t, orderID, link.PurchaseOrderID)
		assert.Equal(t, "AbCdEf123456", link.ShareCode)
		assert.Equal(t, 0, link.AccessCount)
		assert.Nil(t, link.DisabledAt)
		assert.False(t, link.IsDisabled())
	})

	t.Run("allows empty extract code", func(t *testing.T) {
		link, err := NewShareLink(orderID, "AbCdEf123456", "", expiry, nil)
		require.NoError(t, err)
		assert.False(t, link.HasExtractCode())
	})

	tests := []struct {
		name        string
		orderID     uuid.UUID
		shareCode   string
		extractCode string
		expiresAt   time.Time
		accessLimit *int
	}{
		{"empty order id", uuid.Nil, "AbCdEf123456", "", expiry, nil},
		{"share code too short", orderID, "short1", "", expiry, nil},
		{"extract code too long", orderID, "AbCdEf123456", "abcde", expiry, nil},
		{"extract code not alnum", orderID, "AbCdEf123456", "ab-!", expiry, nil},
		{"expiry in the past", orderID, "AbCdEf123456", "", time.Now().Add(-time.Hour), nil},
		{"zero access limit", orderID, "AbCdEf123456", "", expiry, intPtr(0)},
		{"negative access limit", orderID, "AbCdEf123456", "", expiry, intPtr(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewShareLink(tt.orderID, tt.shareCode, tt.extractCode, tt.expiresAt, tt.accessLimit)
			assert.Error(t, err)
		})
	}
}

func TestShareLink_Configure(t *testing.T) {
	t.Run("updates settings but keeps code and count", func(t *testing.T) {
		link := createTestShareLink(t)
		link.AccessCount = 5
		originalCode := link.ShareCode
		newExpiry := time.Now().Add(72 * time.Hour)

		err := link.Configure("Zz11", newExpiry, intPtr(20))
		require.NoError(t, err)

		assert.Equal(t, originalCode, link.ShareCode)
		assert.Equal(t, 5, link.AccessCount)
		assert.Equal(t, "Zz11", link.ExtractCode)
		assert.Equal(t, 20, *link.AccessLimit)
		assert.True(t, link.ExpiresAt.Equal(newExpiry))
	})

	t.Run("can clear extract code and limit", func(t *testing.T) {
		link := createTestShareLink(t)
		err := link.Configure("", time.Now().Add(time.Hour), nil)
		require.NoError(t, err)
		assert.False(t, link.HasExtractCode())
		assert.Nil(t, link.AccessLimit)
	})

	t.Run("rejects reconfiguring a disabled link", func(t *testing.T) {
		link := createTestShareLink(t)
		require.NoError(t, link.Disable())
		err := link.Configure("Ab12", time.Now().Add(time.Hour), nil)
		assert.Error(t, err)
	})

	t.Run("rejects past expiry", func(t *testing.T) {
		link := createTestShareLink(t)
		err := link.Configure("", time.Now().Add(-time.Minute), nil)
		assert.Error(t, err)
	})
}

func TestShareLink_Disable(t *testing.T) {
	link := createTestShareLink(t)

	require.NoError(t, link.Disable())
	assert.True(t, link.IsDisabled())
	assert.NotNil(t, link.DisabledAt)

	// Disabling twice is an error; the link never re-enables.
	assert.Error(t, link.Disable())
	assert.True(t, link.IsDisabled())
}

func TestShareLink_CheckAccess(t *testing.T) {
	now := time.Now()

	t.Run("passes all gates", func(t *testing.T) {
		link := createTestShareLink(t)
		reason, ok := link.CheckAccess(now, "X9z3")
		assert.True(t, ok)
		assert.Empty(t, reason)
	})

	t.Run("disabled wins over every other gate", func(t *testing.T) {
		link := createTestShareLink(t)
		require.NoError(t, link.Disable())
		reason, ok := link.CheckAccess(now, "X9z3")
		assert.False(t, ok)
		assert.Equal(t, DenialDisabled, reason)
	})

	t.Run("expired link denies even with correct extract code", func(t *testing.T) {
		link := createTestShareLink(t)
		link.ExpiresAt = now.Add(-time.Minute)
		reason, ok := link.CheckAccess(now, "X9z3")
		assert.False(t, ok)
		assert.Equal(t, DenialExpired, reason)
	})

	t.Run("expiry boundary is exclusive", func(t *testing.T) {
		link := createTestShareLink(t)
		link.ExpiresAt = now
		_, ok := link.CheckAccess(now, "X9z3")
		assert.False(t, ok)
	})

	t.Run("wrong extract code", func(t *testing.T) {
		link := createTestShareLink(t)
		reason, ok := link.CheckAccess(now, "nope")
		assert.False(t, ok)
		assert.Equal(t, DenialWrongExtractCode, reason)
	})

	t.Run("no extract code configured accepts anything", func(t *testing.T) {
		link := createTestShareLink(t)
		link.ExtractCode = ""
		_, ok := link.CheckAccess(now, "whatever")
		assert.True(t, ok)
	})
}

func TestShareLink_AccessExhausted(t *testing.T) {
	link := createTestShareLink(t)

	assert.False(t, link.AccessExhausted(), "no limit set")

	link.AccessLimit = intPtr(3)
	link.AccessCount = 2
	assert.False(t, link.AccessExhausted())

	link.AccessCount = 3
	assert.True(t, link.AccessExhausted())
}
