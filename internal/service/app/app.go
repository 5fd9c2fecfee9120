package app

import (
	"context"
	"errors"
	"fmt"

	"onion_chat/internal/cryptographic/kdf"
	"onion_chat/internal/model"
	"onion_chat/internal/service/dispatcher"
	"onion_chat/internal/store"
	"onion_chat/internal/utils/log"

	"go.uber.org/zap"
)

type (
	// App is the synchronous surface the rest of the process (CLI flow,
	// local control endpoints) calls into: identity bootstrap, contact and
	// conversation management, history reads, sends. Duplicate-key and
	// unknown-conversation errors surface here to whoever initiated the
	// operation.
	App struct {
		contacts      store.ContactStore
		conversations store.ConversationStore
		messages      store.MessageLog
		dispatcher    *dispatcher.Dispatcher
	}
)

func NewApp(
	contacts store.ContactStore,
	conversations store.ConversationStore,
	messages store.MessageLog,
	disp *dispatcher.Dispatcher,
) *App {
	return &App{
		contacts:      contacts,
		conversations: conversations,
		messages:      messages,
		dispatcher:    disp,
	}
}

// BootstrapPrimaryUser establishes the singleton local identity on first run
// and refreshes its onion address on every later one, since the transport
// publishes a fresh address per data directory.
func (a *App) BootstrapPrimaryUser(ctx context.Context, name, address string) (*model.PrimaryUser, error) {
	user := &model.PrimaryUser{
		ID:      model.PrimaryUserID,
		Name:    name,
		Address: address,
	}

	err := a.contacts.InsertPrimaryUser(ctx, user)
	if errors.Is(err, store.ErrDuplicateKey) {
		if err := a.contacts.UpdatePrimaryUserAddress(ctx, address); err != nil {
			return nil, fmt.Errorf("refresh primary address: %w", err)
		}
		return a.contacts.GetPrimaryUser(ctx)
	}
	if err != nil {
		return nil, err
	}

	log.Info("primary user created", zap.String("name", name))
	return user, nil
}

// AddContact derives the contact's symmetric key from the out-of-band shared
// secret and stores the contact. Re-adding an existing name fails with
// store.ErrDuplicateKey; contacts are never silently overwritten.
func (a *App) AddContact(ctx context.Context, name, address string, sharedSecret []byte) (*model.Contact, error) {
	key, err := kdf.DeriveContactKey(sharedSecret, model.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive contact key: %w", err)
	}

	contact := &model.Contact{
		Name:    name,
		Key:     key,
		Address: address,
	}
	if err := a.contacts.InsertContact(ctx, contact); err != nil {
		return nil, err
	}

	log.Info("contact added", zap.String("name", name))
	return contact, nil
}

// StartConversation registers a conversation name against an existing
// contact. The name must be unique under the single-user model.
func (a *App) StartConversation(ctx context.Context, contactName, conversationName string) (*model.Conversation, error) {
	if _, err := a.contacts.GetContact(ctx, contactName); err != nil {
		return nil, err
	}
	return a.conversations.InsertConversation(ctx, contactName, conversationName)
}

// Send dispatches text to the named conversation and reports the outcome.
func (a *App) Send(ctx context.Context, text, conversationName string) (dispatcher.Outcome, error) {
	return a.dispatcher.Send(ctx, text, conversationName)
}

// History returns the conversation's messages, timestamp-ascending.
func (a *App) History(ctx context.Context, conversationName string) ([]*model.Message, error) {
	return a.messages.ListMessages(ctx, conversationName)
}
