// Package notify fans ticket events out to area members as best-effort
// push deliveries. Nothing here may fail or block the primary write: the
// dispatcher is invoked after commit and swallows every delivery error.
package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// AreaNotifier resolves the recipient set of a ticket's assigned area and
// attempts one delivery per recipient, excluding the acting account.
type AreaNotifier struct {
	accounts  repository.AccountRepository
	subs      SubscriptionStore
	transport Transport
	logger    *zap.Logger
}

// NewAreaNotifier constructs the notifier.
func NewAreaNotifier(accounts repository.AccountRepository, subs SubscriptionStore, transport Transport, logger *zap.Logger) *AreaNotifier {
	return &AreaNotifier{
		accounts:  accounts,
		subs:      subs,
		transport: transport,
		logger:    logger,
	}
}

// RegisterHandlers subscribes the notifier to ticket events.
func (n *AreaNotifier) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleStatusChanged)
}

func (n *AreaNotifier) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	n.NotifyArea(ctx, payload.AreaID, event.ActorID, Payload{
		Title: "New ticket",
		Body:  fmt.Sprintf("New ticket in your area: %s", payload.Title),
		Link:  "/tickets/" + event.TicketID,
	})
	return nil
}

func (n *AreaNotifier) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	n.NotifyArea(ctx, payload.AreaID, event.ActorID, Payload{
		Title: "Ticket updated",
		Body:  fmt.Sprintf("Ticket '%s' moved from %s to %s", payload.Title, payload.OldStatus, payload.NewStatus),
		Link:  "/tickets/" + event.TicketID,
	})
	return nil
}

// NotifyArea delivers payload to every active member of the area except
// the actor. An unset area is a no-op. Each recipient is isolated: a
// failed delivery is logged and the loop moves on.
func (n *AreaNotifier) NotifyArea(ctx context.Context, areaID *string, actorID string, payload Payload) {
	if areaID == nil || *areaID == "" {
		return
	}
	members, err := n.accounts.ListActiveByArea(ctx, *areaID)
	if err != nil {
		n.logger.Warn("notification recipient lookup failed",
			zap.String("area_id", *areaID), zap.Error(err))
		return
	}
	for i := range members {
		member := &members[i]
		if member.ID == actorID {
			continue
		}
		if err := n.deliver(ctx, member.ID, payload); err != nil {
			n.logger.Warn("push delivery failed",
				zap.String("account_id", member.ID),
				zap.String("username", member.Username),
				zap.Error(err))
		}
	}
}

func (n *AreaNotifier) deliver(ctx context.Context, accountID string, payload Payload) error {
	sub, err := n.subs.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNoSubscription) {
			return nil
		}
		return err
	}
	return n.transport.Send(ctx, *sub, payload)
}
