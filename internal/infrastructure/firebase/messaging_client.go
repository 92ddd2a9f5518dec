package firebase

import (
	"context"

	"firebase.google.com/go/v4/messaging"

	"goldmarket/internal/domain/entity"
	"goldmarket/internal/domain/service"
)

// MaxMulticastTokens is the FCM ceiling for one multicast request.
const MaxMulticastTokens = 500

type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type FirebaseMessagingClient struct {
	client       multicastSender
	isPermanent  func(error) bool
	isInvalidArg func(error) bool
}

func NewFirebaseMessagingClient(client *messaging.Client) *FirebaseMessagingClient {
	return &FirebaseMessagingClient{
		client:       client,
		isPermanent:  IsPermanentTokenError,
		isInvalidArg: messaging.IsInvalidArgument,
	}
}

// IsPermanentTokenError reports failures after which the token is dead for
// good on its own. Quota and availability errors are not.
func IsPermanentTokenError(err error) bool {
	return messaging.IsUnregistered(err) || messaging.IsSenderIDMismatch(err)
}

func (f *FirebaseMessagingClient) SendMulticast(ctx context.Context, tokens []string, notification entity.Notification) ([]service.DeliveryResult, error) {
	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: notification.Title,
			Body:  notification.Body,
		},
		Data: notification.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
		},
	}

	batch, err := f.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, err
	}

	// Every token in the batch got the same payload, so an invalid-argument
	// rejection next to a success can only be blamed on the token.
	payloadAccepted := false
	for _, resp := range batch.Responses {
		if resp != nil && resp.Success {
			payloadAccepted = true
			break
		}
	}

	results := make([]service.DeliveryResult, len(tokens))
	for i, token := range tokens {
		results[i] = service.DeliveryResult{Token: token}
		if i >= len(batch.Responses) || batch.Responses[i] == nil {
			continue
		}

		resp := batch.Responses[i]
		if resp.Success {
			results[i].MessageID = resp.MessageID
			continue
		}
		results[i].Err = resp.Error
		results[i].Permanent = f.isPermanent(resp.Error) ||
			(payloadAccepted && f.isInvalidArg != nil && f.isInvalidArg(resp.Error))
	}

	return results, nil
}
