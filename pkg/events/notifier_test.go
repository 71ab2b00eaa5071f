package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingWriter struct {
	mu   sync.Mutex
	logs []*repository.AuditLog
	err  error
}

func (w *recordingWriter) CreateAuditLog(_ context.Context, log *repository.AuditLog) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.logs = append(w.logs, log)
	return nil
}

func (w *recordingWriter) snapshot() []*repository.AuditLog {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]*repository.AuditLog(nil), w.logs...)
}

func TestNotifierWritesAuditLogs(t *testing.T) {
	writer := &recordingWriter{}
	n, err := NewNotifier(writer, "storefront-api", zap.NewNop())
	require.NoError(t, err)

	n.Publish(OrderPlaced{UserID: "u1", OrderID: 1700000000000, Total: 12.5, Items: 2})
	n.Publish(OrderStatusChanged{UserID: "u1", OrderID: 1700000000000,
		From: models.OrderPending, To: models.OrderShipped, Stock: models.StockDeduct})
	n.Stop()

	assert.Eventually(t, func() bool { return len(writer.snapshot()) == 2 }, time.Second, 10*time.Millisecond)

	logs := writer.snapshot()
	assert.Equal(t, "order.placed", logs[0].Action)
	assert.Equal(t, "1700000000000", logs[0].EntityID)
	assert.Equal(t, "storefront-api", logs[0].Service)
	assert.Equal(t, "u1", logs[0].Data["user_id"])

	assert.Equal(t, "order.status_changed", logs[1].Action)
	assert.Equal(t, "deduct", logs[1].Data["stock"])
	assert.False(t, logs[1].CreatedAt.IsZero())
}

func TestNotifierSurvivesWriteErrors(t *testing.T) {
	writer := &recordingWriter{err: errors.New("mongo down")}
	n, err := NewNotifier(writer, "storefront-api", zap.NewNop())
	require.NoError(t, err)

	n.Publish(UserBlockChanged{UserID: "u2", Blocked: true, ActorID: "admin"})

	writer.mu.Lock()
	writer.err = nil
	writer.mu.Unlock()

	n.Publish(ProductChanged{ProductID: "p1", Change: ProductDeleted})
	n.Stop()

	assert.Eventually(t, func() bool {
		for _, l := range writer.snapshot() {
			if l.Action == "product.deleted" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestEventFields(t *testing.T) {
	e := UserBlockChanged{UserID: "u3", Blocked: false, ActorID: "a1"}
	assert.Equal(t, "user.block_changed", e.Action())
	assert.Equal(t, "u3", e.EntityID())
	assert.Equal(t, map[string]interface{}{"blocked": false, "by": "a1"}, e.Fields())
}
