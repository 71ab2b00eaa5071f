package events

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/storefront/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// AuditWriter persists audit documents.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}

type envelope struct {
	event Event
	at    time.Time
}

// auditActor writes one audit document per event. Failures are logged and
// the event is dropped.
type auditActor struct {
	writer  AuditWriter
	service string
	timeout time.Duration
	logger  *zap.Logger
}

func (a *auditActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *envelope:
		a.write(msg)

	case *actor.Started:
		a.logger.Info("Audit actor started")

	case *actor.Stopping:
		a.logger.Info("Audit actor stopping")
	}
}

func (a *auditActor) write(msg *envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	entry := &repository.AuditLog{
		Service:   a.service,
		Action:    msg.event.Action(),
		EntityID:  msg.event.EntityID(),
		Data:      bson.M(msg.event.Fields()),
		CreatedAt: msg.at,
	}
	if err := a.writer.CreateAuditLog(ctx, entry); err != nil {
		a.logger.Error("Failed to write audit log",
			zap.String("action", entry.Action),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err))
	}
}

// Notifier hands events to the audit actor without waiting for the write.
type Notifier struct {
	system *actor.ActorSystem
	pid    *actor.PID
	logger *zap.Logger
}

func NewNotifier(writer AuditWriter, service string, logger *zap.Logger) (*Notifier, error) {
	system := actor.NewActorSystem()

	props := actor.PropsFromProducer(func() actor.Actor {
		return &auditActor{
			writer:  writer,
			service: service,
			timeout: 5 * time.Second,
			logger:  logger,
		}
	})
	pid, err := system.Root.SpawnNamed(props, "audit-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn audit actor: %w", err)
	}

	return &Notifier{system: system, pid: pid, logger: logger}, nil
}

func (n *Notifier) Publish(e Event) {
	n.system.Root.Send(n.pid, &envelope{event: e, at: time.Now().UTC()})
}

// Stop drains queued events and stops the actor.
func (n *Notifier) Stop() {
	if err := n.system.Root.PoisonFuture(n.pid).Wait(); err != nil {
		n.logger.Warn("Audit actor did not stop cleanly", zap.Error(err))
	}
}
