package dispatcher

import (
	"context"
	"errors"
	"time"

	"onion_chat/internal/cryptographic/encryption"
	"onion_chat/internal/model"
	"onion_chat/internal/service/notify"
	"onion_chat/internal/store"
	"onion_chat/internal/transport"
	"onion_chat/internal/utils/log"
	"onion_chat/internal/worker"

	"go.uber.org/zap"
)

// ErrUnknownConversation is returned when a send names a conversation with no
// resolvable contact. It is surfaced to the caller, never retried.
var ErrUnknownConversation = errors.New("unknown conversation")

// SentinelText is recorded in the conversation log in place of a message that
// could not be delivered. It is a first-class log entry, not a transient
// alert, so failure history survives in the durable record.
const SentinelText = "UNABLE TO SEND — TRY AGAIN"

// Outcome reports how a send concluded.
type Outcome int

const (
	Delivered Outcome = iota
	Failed
)

type (
	// Dispatcher encrypts outgoing messages for the contact behind a named
	// conversation and reconciles the local log with the transmission
	// outcome: an acknowledged send records the plaintext, anything else
	// records the sentinel.
	Dispatcher struct {
		contacts      store.ContactStore
		conversations store.ConversationStore
		messages      store.MessageLog
		notifier      notify.Notifier
		sender        transport.Sender
		pool          *worker.Pool
		timeout       time.Duration
	}
)

func NewDispatcher(
	contacts store.ContactStore,
	conversations store.ConversationStore,
	messages store.MessageLog,
	notifier notify.Notifier,
	sender transport.Sender,
	pool *worker.Pool,
	timeout time.Duration,
) *Dispatcher {
	return &Dispatcher{
		contacts:      contacts,
		conversations: conversations,
		messages:      messages,
		notifier:      notifier,
		sender:        sender,
		pool:          pool,
		timeout:       timeout,
	}
}

// Send transmits text to the contact behind conversationName and returns the
// outcome. A transport failure or timeout is not an error: it resolves to
// Failed with exactly one sentinel entry appended. Errors are reserved for
// ErrUnknownConversation and store trouble.
func (d *Dispatcher) Send(ctx context.Context, text, conversationName string) (Outcome, error) {
	convo, err := d.conversations.GetConversation(ctx, conversationName)
	if errors.Is(err, store.ErrNotFound) {
		return Failed, ErrUnknownConversation
	}
	if err != nil {
		return Failed, err
	}

	contact, err := d.contacts.GetContact(ctx, convo.ContactName)
	if errors.Is(err, store.ErrNotFound) {
		return Failed, ErrUnknownConversation
	}
	if err != nil {
		return Failed, err
	}

	primary, err := d.contacts.GetPrimaryUser(ctx)
	if err != nil {
		return Failed, err
	}

	// Conversation name and message text are sealed independently; the peer
	// resolves the first before spending cycles on the second.
	convoEncrypt, err := encryption.Seal(contact.Key, []byte(conversationName))
	if err != nil {
		return Failed, err
	}
	msgEncrypt, err := encryption.Seal(contact.Key, []byte(text))
	if err != nil {
		return Failed, err
	}

	envelope := &model.Envelope{
		ConvoEncrypt: convoEncrypt,
		MsgEncrypt:   msgEncrypt,
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, contact.Address, envelope); err != nil {
		log.Info("delivery failed, recording sentinel",
			zap.String("conversation", conversationName), zap.Error(err))
		if appendErr := d.append(ctx, primary.Name, conversationName, SentinelText); appendErr != nil {
			return Failed, appendErr
		}
		return Failed, nil
	}

	if err := d.append(ctx, primary.Name, conversationName, text); err != nil {
		return Failed, err
	}
	return Delivered, nil
}

// SendAsync submits the send to the worker pool so UI-facing callers never
// block on transport I/O. The outcome lands in the conversation log either
// way; done, when non-nil, receives it as well.
func (d *Dispatcher) SendAsync(text, conversationName string, done func(Outcome, error)) bool {
	return d.pool.Submit(func(ctx context.Context) {
		outcome, err := d.Send(ctx, text, conversationName)
		if err != nil {
			log.Error("dispatch failed",
				zap.String("conversation", conversationName), zap.Error(err))
		}
		if done != nil {
			done(outcome, err)
		}
	})
}

func (d *Dispatcher) append(ctx context.Context, sender, conversationName, text string) error {
	msg := &model.Message{
		ContactName:      sender,
		ConversationName: conversationName,
		Text:             text,
		Timestamp:        time.Now().UnixMilli(),
	}
	if err := d.messages.AppendMessage(ctx, msg); err != nil {
		return err
	}

	if err := d.notifier.Publish(ctx, conversationName); err != nil {
		log.Error("publish update failed",
			zap.String("conversation", conversationName), zap.Error(err))
	}
	return nil
}
