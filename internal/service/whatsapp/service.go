package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/config"
	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/service/commands"
	client "github.com/mamadbah2/stockroom/pkg/clients/whatsapp"
)

// ErrVerificationFailed is returned when Meta's webhook challenge does not match.
var ErrVerificationFailed = errors.New("webhook verification failed")

const sendTimeout = 10 * time.Second

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher commands.Dispatcher
	allowed    map[string]struct{}
	seen       *recentMessages
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, dispatcher commands.Dispatcher, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
		allowed:    make(map[string]struct{}, len(cfg.AllowedSenders)),
		seen:       newRecentMessages(512),
		logger:     logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	for _, sender := range cfg.AllowedSenders {
		svc.allowed[normalizeNumber(sender)] = struct{}{}
	}
	return svc
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", fmt.Errorf("%w: missing mode or verify token", ErrVerificationFailed)
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("%w: unsupported hub.mode %s", ErrVerificationFailed, mode)
	}

	if s.cfg.VerifyToken == "" || verifyToken != s.cfg.VerifyToken {
		return "", fmt.Errorf("%w: invalid verify token", ErrVerificationFailed)
	}

	return challenge, nil
}

// HandleWebhook answers every inbound message in the payload. The first failure is returned after all
// messages have been tried.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	if msg.ID != "" && !s.seen.add(msg.ID) {
		s.logger.Debug("skipping redelivered message", zap.String("message_id", msg.ID))
		return nil
	}

	if !s.senderAllowed(msg.From) {
		s.logger.Warn("ignoring message from unknown sender", zap.String("from", msg.From))
		return nil
	}

	if msg.ID != "" {
		if err := s.client.MarkRead(ctx, msg.ID); err != nil {
			s.logger.Debug("could not mark message read", zap.Error(err), zap.String("message_id", msg.ID))
		}
	}

	text := strings.TrimSpace(msg.Body())
	if text == "" {
		s.logger.Debug("ignoring message without text", zap.String("type", msg.Type))
		return nil
	}

	cmd := models.ParseCommand(text)
	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Strings("args", cmd.Args))

	reply, err := s.dispatcher.HandleCommand(ctx, cmd, msg.From)
	switch {
	case errors.Is(err, commands.ErrInvalidArguments):
		reply = fmt.Sprintf("/%s needs something to look for, e.g. /%s glass", cmd.Type, cmd.Type)
	case err != nil:
		s.logger.Error("command failed", zap.Error(err), zap.String("command", string(cmd.Type)))
		reply = "Sorry, the inventory is unavailable right now. Please try again later."
	}

	return s.send(ctx, msg.From, reply, false)
}

// SendOutbound lets internal operators push quick notifications via HTTP.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	return s.send(ctx, req.To, req.Message, req.PreviewURL)
}

func (s *MetaWhatsAppService) send(ctx context.Context, to, body string, previewURL bool) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         to,
		Body:       body,
		PreviewURL: previewURL,
	})
	return err
}

func (s *MetaWhatsAppService) senderAllowed(from string) bool {
	if len(s.allowed) == 0 {
		return true
	}
	_, ok := s.allowed[normalizeNumber(from)]
	return ok
}

func normalizeNumber(n string) string {
	return strings.TrimPrefix(strings.TrimSpace(n), "+")
}
