package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockroom/internal/config"
	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/service/commands"
	client "github.com/mamadbah2/stockroom/pkg/clients/whatsapp"
)

type fakeClient struct {
	sent []client.SendTextMessageRequest
	read []string
	err  error
}

func (f *fakeClient) MarkRead(_ context.Context, id string) error {
	f.read = append(f.read, id)
	return f.err
}

func (f *fakeClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

type fakeDispatcher struct {
	calls []models.Command
	err   error
}

func (f *fakeDispatcher) HandleCommand(_ context.Context, cmd models.Command, sender string) (string, error) {
	f.calls = append(f.calls, cmd)
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("reply to %s", cmd.Type), nil
}

func textPayload(msgs ...models.InboundMessage) models.WebhookPayload {
	return models.WebhookPayload{
		Object: "whatsapp_business_account",
		Entry: []models.WebhookEntry{{
			Changes: []models.WebhookChange{{Field: "messages", Value: models.WebhookValue{Messages: msgs}}},
		}},
	}
}

func text(id, from, body string) models.InboundMessage {
	return models.InboundMessage{ID: id, From: from, Type: "text", Text: &models.TextContent{Body: body}}
}

func TestVerifyWebhookToken(t *testing.T) {
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{VerifyToken: "secret"}, &fakeClient{}, &fakeDispatcher{}, nil)

	challenge, err := svc.VerifyWebhookToken("subscribe", "secret", "12345")
	require.NoError(t, err)
	assert.Equal(t, "12345", challenge)

	for _, tc := range [][2]string{{"", "secret"}, {"unsubscribe", "secret"}, {"subscribe", "nope"}} {
		_, err := svc.VerifyWebhookToken(tc[0], tc[1], "12345")
		assert.ErrorIs(t, err, ErrVerificationFailed)
	}
}

func TestHandleWebhookRepliesToCommands(t *testing.T) {
	wa := &fakeClient{}
	dispatcher := &fakeDispatcher{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, wa, dispatcher, nil)

	button := models.InboundMessage{
		ID: "m2", From: "15550002", Type: "interactive",
		Interactive: &models.InteractiveContent{ButtonReply: &models.ButtonReply{ID: "/low"}},
	}
	err := svc.HandleWebhook(context.Background(), textPayload(text("m1", "15550001", "/find Glass"), button))
	require.NoError(t, err)

	require.Len(t, dispatcher.calls, 2)
	assert.Equal(t, []string{"Glass"}, dispatcher.calls[0].Args)
	assert.Equal(t, models.CommandLow, dispatcher.calls[1].Type)

	require.Len(t, wa.sent, 2)
	assert.Equal(t, "15550001", wa.sent[0].To)
	assert.Equal(t, "reply to find", wa.sent[0].Body)
}

func TestHandleWebhookSkipsRedeliveriesAndEmptyMessages(t *testing.T) {
	wa := &fakeClient{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, wa, &fakeDispatcher{}, nil)
	ctx := context.Background()

	require.NoError(t, svc.HandleWebhook(ctx, textPayload(text("m1", "1", "/low"))))
	require.NoError(t, svc.HandleWebhook(ctx, textPayload(text("m1", "1", "/low"))))
	require.NoError(t, svc.HandleWebhook(ctx, textPayload(models.InboundMessage{ID: "m3", From: "1", Type: "image"})))

	assert.Len(t, wa.sent, 1)
	assert.Equal(t, []string{"m1", "m3"}, wa.read)
}

func TestHandleWebhookAllowlist(t *testing.T) {
	wa := &fakeClient{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{AllowedSenders: []string{"+15550001"}}, wa, &fakeDispatcher{}, nil)

	err := svc.HandleWebhook(context.Background(), textPayload(
		text("a", "15550001", "/low"),
		text("b", "19990000", "/low"),
	))
	require.NoError(t, err)
	require.Len(t, wa.sent, 1)
	assert.Equal(t, "15550001", wa.sent[0].To)
	assert.Equal(t, []string{"a"}, wa.read)
}

func TestHandleWebhookDispatcherErrors(t *testing.T) {
	wa := &fakeClient{}
	dispatcher := &fakeDispatcher{err: fmt.Errorf("wrap: %w", commands.ErrInvalidArguments)}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, wa, dispatcher, nil)

	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload(text("a", "1", "/stock"))))
	require.Len(t, wa.sent, 1)
	assert.Contains(t, wa.sent[0].Body, "/stock needs something to look for")

	dispatcher.err = errors.New("mongo down")
	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload(text("b", "1", "/low"))))
	assert.Contains(t, wa.sent[1].Body, "unavailable")
}

func TestHandleWebhookReportsSendFailure(t *testing.T) {
	wa := &fakeClient{err: &client.APIError{Status: 400, Message: "bad"}}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, wa, &fakeDispatcher{}, nil)

	err := svc.HandleWebhook(context.Background(), textPayload(text("a", "1", "/low"), text("b", "1", "/help")))
	var apiErr *client.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestRecentMessagesEvictsOldest(t *testing.T) {
	r := newRecentMessages(2)
	assert.True(t, r.add("a"))
	assert.True(t, r.add("b"))
	assert.False(t, r.add("a"))
	assert.True(t, r.add("c"))
	assert.True(t, r.add("a"))
}
