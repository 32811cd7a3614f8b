package audit

import (
	"context"
	"testing"

	"github.com/erp/supply-portal/internal/domain/sharing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapAuditLogger_Log(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	auditLogger := NewZapAuditLogger(zap.New(core), 16)

	auditLogger.Log(context.Background(), sharing.AuditEntry{
		Category:  "TRADE",
		Module:    "SUPPLY_SHARING",
		Operation: "CREATE_SHARE_LINK",
		Operator:  "staff-1",
		Status:    "SUCCESS",
		Details:   map[string]interface{}{"share_code": "AbCdEf123456"},
	})

	require.NoError(t, auditLogger.Close())

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "business action", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "CREATE_SHARE_LINK", fields["operation"])
	assert.Equal(t, "staff-1", fields["operator"])
	assert.Equal(t, "SUCCESS", fields["status"])
}

func TestZapAuditLogger_DropsWhenBufferFull(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	auditLogger := &ZapAuditLogger{
		logger:  zap.New(core).Named("audit"),
		entries: make(chan sharing.AuditEntry, 1),
	}
	// No writer goroutine running, so the buffer fills immediately.

	auditLogger.Log(context.Background(), sharing.AuditEntry{Operation: "FIRST"})
	auditLogger.Log(context.Background(), sharing.AuditEntry{Operation: "SECOND"})

	assert.EqualValues(t, 1, auditLogger.Dropped())

	dropWarnings := logs.FilterMessage("audit buffer full, entry dropped")
	require.Equal(t, 1, dropWarnings.Len())
	assert.Equal(t, "SECOND", dropWarnings.All()[0].ContextMap()["operation"])
}

func TestZapAuditLogger_CloseDrainsPending(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	auditLogger := NewZapAuditLogger(zap.New(core), 64)

	for i := 0; i < 10; i++ {
		auditLogger.Log(context.Background(), sharing.AuditEntry{Operation: "OP"})
	}
	require.NoError(t, auditLogger.Close())
	require.NoError(t, auditLogger.Close())

	assert.Equal(t, 10, logs.FilterMessage("business action").Len())
}
