// Package firebase delivers push notifications about connection events
// through Firebase Cloud Messaging.
package firebase

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

const fcmBatchLimit = 500

// TokenSource resolves the active device tokens of a user.
type TokenSource func(ctx context.Context, userID int64) ([]string, error)

// TokenDeactivator marks an invalid FCM token as inactive. Provided by
// the caller to avoid coupling to the repository.
type TokenDeactivator func(ctx context.Context, token string) error

// Messenger sends per-user push notifications over FCM. It satisfies the
// sync engine's Messenger interface.
type Messenger struct {
	msgClient   *messaging.Client
	tokens      TokenSource
	deactivator TokenDeactivator
}

// NewMessenger initializes a Firebase app from a credentials file.
// deactivator may be nil.
func NewMessenger(ctx context.Context, credentialsFile string, tokens TokenSource, deactivator TokenDeactivator) (*Messenger, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging client: %w", err)
	}

	return &Messenger{msgClient: msgClient, tokens: tokens, deactivator: deactivator}, nil
}

// Send delivers a notification to every active device of the user,
// batching into chunks of 500 (Firebase API limit). Invalid tokens are
// deactivated as they are discovered.
func (m *Messenger) Send(ctx context.Context, userID int64, title, body string, data map[string]string) error {
	tokens, err := m.tokens(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load device tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	var totalSuccess, totalFailure int
	for _, batch := range chunkTokens(tokens, fcmBatchLimit) {
		msg := &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
		}

		resp, err := m.msgClient.SendEachForMulticast(ctx, msg)
		if err != nil {
			return fmt.Errorf("failed to send FCM multicast: %w", err)
		}

		totalSuccess += resp.SuccessCount
		totalFailure += resp.FailureCount
		if resp.FailureCount > 0 {
			m.handleFailures(ctx, batch, resp)
		}
	}

	log.Printf("User %d: FCM delivery %d success, %d failure", userID, totalSuccess, totalFailure)
	return nil
}

func (m *Messenger) handleFailures(ctx context.Context, tokens []string, resp *messaging.BatchResponse) {
	for i, sendResp := range resp.Responses {
		if sendResp.Error == nil {
			continue
		}
		if messaging.IsUnregistered(sendResp.Error) || messaging.IsInvalidArgument(sendResp.Error) {
			log.Printf("Invalid FCM token (deactivating): %v", sendResp.Error)
			m.deactivateToken(ctx, tokens[i])
		} else {
			log.Printf("FCM send error at index %d: %v", i, sendResp.Error)
		}
	}
}

func (m *Messenger) deactivateToken(ctx context.Context, token string) {
	if m.deactivator == nil {
		return
	}
	if err := m.deactivator(ctx, token); err != nil {
		log.Printf("Failed to deactivate FCM token: %v", err)
	}
}

func chunkTokens(tokens []string, size int) [][]string {
	var chunks [][]string
	for i := 0; i < len(tokens); i += size {
		end := i + size
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, tokens[i:end])
	}
	return chunks
}
