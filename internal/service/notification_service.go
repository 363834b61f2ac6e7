package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
)

const (
	slackTimeout   = 3 * time.Second
	slackQueueSize = 64
)

// WebhookPoster delivers a Slack incoming-webhook message.
type WebhookPoster func(ctx context.Context, url string, msg *slack.WebhookMessage) error

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	post       WebhookPoster

	// Handlers run on the publishing request; delivery happens on the Start goroutine.
	mu        sync.RWMutex
	closed    bool
	queue     chan string
	startOnce sync.Once
	started   chan struct{}
	done      chan struct{}
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		post:       slack.PostWebhookContext,
		queue:      make(chan string, slackQueueSize),
		started:    make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the Slack delivery loop. Repeated calls are no-ops.
func (n *NotificationService) Start() {
	n.startOnce.Do(func() {
		close(n.started)
		go n.run()
	})
}

// Close stops accepting messages and waits for queued ones to be delivered.
func (n *NotificationService) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	select {
	case <-n.started:
		<-n.done
	default:
	}
}

func (n *NotificationService) run() {
	defer close(n.done)
	for text := range n.queue {
		if err := n.deliver(text); err != nil {
			n.logger.Warn("slack notification failed", zap.Error(err))
		}
	}
}

// WithPoster replaces the Slack transport.
func (n *NotificationService) WithPoster(post WebhookPoster) *NotificationService {
	n.post = post
	return n
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketUpdated, n.handleTicketUpdated)
}

func (n *NotificationService) handleTicketCreated(_ context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	if payload.Priority != domain.TicketPriorityHigh && payload.Priority != domain.TicketPriorityCritical {
		return nil
	}
	text := fmt.Sprintf(":rotating_light: New %s %s ticket: %s (%s)",
		payload.Priority, payload.Category, payload.Title, event.TicketID)
	n.enqueue(text)
	return nil
}

func (n *NotificationService) handleTicketUpdated(_ context.Context, event events.Event) error {
	n.logger.Info("TicketUpdated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	payload, ok := event.Payload.(events.TicketUpdatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	if !payload.StatusChanged() {
		return nil
	}
	text := fmt.Sprintf("Ticket %s (%s) moved from %s to %s",
		payload.Title, event.TicketID, payload.OldStatus, payload.NewStatus)
	n.enqueue(text)
	return nil
}

// enqueue never blocks; messages are dropped when the queue is full or closed.
func (n *NotificationService) enqueue(text string) {
	if strings.TrimSpace(n.cfg.SlackWebhookURL) == "" {
		return
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		n.logger.Warn("slack notification dropped after shutdown")
		return
	}
	select {
	case n.queue <- text:
	default:
		n.logger.Warn("slack notification queue full; dropping message")
	}
}

func (n *NotificationService) deliver(text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), slackTimeout)
	defer cancel()
	if err := n.post(ctx, n.cfg.SlackWebhookURL, &slack.WebhookMessage{Text: text}); err != nil {
		return fmt.Errorf("post slack webhook: %w", err)
	}
	return nil
}
