package store

import (
	"context"
	"errors"

	"onion_chat/internal/model"
)

var (
	// ErrDuplicateKey is returned by insert operations when the primary
	// identifier already exists. Inserts never silently overwrite.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned by lookups that match nothing.
	ErrNotFound = errors.New("not found")
)

type (
	// ContactStore owns Contact and PrimaryUser records.
	ContactStore interface {
		InsertContact(ctx context.Context, contact *model.Contact) error
		GetContact(ctx context.Context, name string) (*model.Contact, error)
		// ListContacts returns all contacts in a stable order.
		ListContacts(ctx context.Context) ([]*model.Contact, error)
		UpdateContactAddress(ctx context.Context, name, address string) error

		// InsertPrimaryUser fails with ErrDuplicateKey once a primary user
		// exists; exactly one local identity is permitted.
		InsertPrimaryUser(ctx context.Context, user *model.PrimaryUser) error
		GetPrimaryUser(ctx context.Context) (*model.PrimaryUser, error)
		UpdatePrimaryUserAddress(ctx context.Context, address string) error
	}

	// ConversationStore owns Conversation records. Conversation names are
	// unique store-wide under the single-user model.
	ConversationStore interface {
		InsertConversation(ctx context.Context, contactName, conversationName string) (*model.Conversation, error)
		GetConversation(ctx context.Context, conversationName string) (*model.Conversation, error)
		ListConversations(ctx context.Context) ([]*model.Conversation, error)
	}

	// MessageLog owns the append-only message record. Appends to the same
	// conversation are linearized; reads come back timestamp-ascending with
	// ties broken by append order.
	MessageLog interface {
		AppendMessage(ctx context.Context, message *model.Message) error
		ListMessages(ctx context.Context, conversationName string) ([]*model.Message, error)
	}
)
