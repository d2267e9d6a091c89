package push

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// TokenSource supplies the device tokens a broadcast should reach.
type TokenSource interface {
	AllPushTokens(ctx context.Context) ([]string, error)
}

// APNSDispatcher broadcasts a message to every registered device over APNs.
// A transport error or a non-device-state rejection fails the whole batch so
// the caller can treat dispatch as all-or-nothing.
type APNSDispatcher struct {
	client *apns2.Client
	topic  string
	tokens TokenSource
}

// NewAPNSDispatcher creates a dispatcher using token-based (.p8) auth.
func NewAPNSDispatcher(authKeyPath, keyID, teamID, topic string, production bool, tokens TokenSource) (*APNSDispatcher, error) {
	authKey, err := token.AuthKeyFromFile(authKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   keyID,
		TeamID:  teamID,
	})
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNSDispatcher{
		client: client,
		topic:  topic,
		tokens: tokens,
	}, nil
}

// Dispatch sends content to every registered device and returns the batch
// dispatch id. APNs assigns ids per device, so the batch id is generated
// here and the per-device ids are logged against it.
func (d *APNSDispatcher) Dispatch(ctx context.Context, content string) (string, error) {
	dispatchID := uuid.New().String()

	deviceTokens, err := d.tokens.AllPushTokens(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load device tokens: %w", err)
	}

	for _, deviceToken := range deviceTokens {
		notification := &apns2.Notification{
			DeviceToken: deviceToken,
			Topic:       d.topic,
			Payload:     payload.NewPayload().Alert(content).Sound("default"),
		}

		res, err := d.client.PushWithContext(ctx, notification)
		if err != nil {
			return "", fmt.Errorf("failed to push to APNs: %w", err)
		}
		if !res.Sent() {
			// Stale device state is not a delivery failure; anything else is.
			if res.Reason == apns2.ReasonUnregistered || res.Reason == apns2.ReasonBadDeviceToken {
				log.Warn().
					Str("dispatch_id", dispatchID).
					Str("reason", res.Reason).
					Msg("Skipping stale device token")
				continue
			}
			return "", fmt.Errorf("APNs rejected push: %s", res.Reason)
		}

		log.Debug().
			Str("dispatch_id", dispatchID).
			Str("apns_id", res.ApnsID).
			Msg("Push delivered to APNs")
	}

	log.Info().
		Str("dispatch_id", dispatchID).
		Int("devices", len(deviceTokens)).
		Msg("Broadcast dispatched")

	return dispatchID, nil
}
