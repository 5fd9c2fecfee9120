package resolver

import (
	"context"
	"errors"

	"onion_chat/internal/cryptographic/encryption"
	"onion_chat/internal/model"
	"onion_chat/internal/store"
	"onion_chat/internal/utils/log"

	"go.uber.org/zap"
)

// ErrUnresolved means the envelope matched no known contact/conversation
// pair. Callers drop the envelope without any observable reaction so an
// anonymous sender learns nothing from probing.
var ErrUnresolved = errors.New("unresolved envelope")

type (
	// Resolver maps an opaque inbound envelope to its originator. The wire
	// format carries no sender identity, so the only resolution mechanism is
	// trying every known contact key: a wrong key fails AEAD authentication,
	// the right one yields a conversation name that must also be registered
	// to that same contact before the envelope is accepted.
	Resolver struct {
		contacts      store.ContactStore
		conversations store.ConversationStore
	}

	// Resolution is the accepted (contact, conversation, plaintext) triple.
	Resolution struct {
		Contact          *model.Contact
		ConversationName string
		Text             string
	}
)

func NewResolver(contacts store.ContactStore, conversations store.ConversationStore) *Resolver {
	return &Resolver{
		contacts:      contacts,
		conversations: conversations,
	}
}

func (r *Resolver) Resolve(ctx context.Context, envelope *model.Envelope) (*Resolution, error) {
	contacts, err := r.contacts.ListContacts(ctx)
	if err != nil {
		return nil, err
	}

	for _, contact := range contacts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		nameBytes, err := encryption.Open(contact.Key, envelope.ConvoEncrypt)
		if err != nil {
			// Wrong key. Expected for every contact but the sender.
			continue
		}

		conversationName := string(nameBytes)
		convo, err := r.conversations.GetConversation(ctx, conversationName)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		// A decryption success alone is not acceptance: the candidate
		// conversation must be registered to this exact contact.
		if convo.ContactName != contact.Name {
			continue
		}

		text, err := encryption.Open(contact.Key, envelope.MsgEncrypt)
		if err != nil {
			log.Debug("message ciphertext failed under accepted key",
				zap.String("contact", contact.Name))
			continue
		}

		return &Resolution{
			Contact:          contact,
			ConversationName: conversationName,
			Text:             string(text),
		}, nil
	}

	return nil, ErrUnresolved
}
