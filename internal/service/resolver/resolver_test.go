package resolver

import (
	"context"
	"crypto/rand"
	"testing"

	"onion_chat/internal/cryptographic/encryption"
	"onion_chat/internal/model"
	"onion_chat/internal/store/memstore"

	"github.com/stretchr/testify/require"
)

func randomKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, model.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func sealEnvelope(t *testing.T, key []byte, conversationName, text string) *model.Envelope {
	t.Helper()
	convoEncrypt, err := encryption.Seal(key, []byte(conversationName))
	require.NoError(t, err)
	msgEncrypt, err := encryption.Seal(key, []byte(text))
	require.NoError(t, err)
	return &model.Envelope{ConvoEncrypt: convoEncrypt, MsgEncrypt: msgEncrypt}
}

func addContact(t *testing.T, s *memstore.Store, name string, key []byte) {
	t.Helper()
	err := s.InsertContact(context.Background(), &model.Contact{Name: name, Key: key})
	require.NoError(t, err)
}

func addConversation(t *testing.T, s *memstore.Store, contactName, conversationName string) {
	t.Helper()
	_, err := s.InsertConversation(context.Background(), contactName, conversationName)
	require.NoError(t, err)
}

func TestResolveRoundTrip(t *testing.T) {
	s := memstore.New()
	key := randomKey(t)
	addContact(t, s, "alice", key)
	addConversation(t, s, "alice", "c1")

	r := NewResolver(s, s)
	res, err := r.Resolve(context.Background(), sealEnvelope(t, key, "c1", "hello"))
	require.NoError(t, err)
	require.Equal(t, "alice", res.Contact.Name)
	require.Equal(t, "c1", res.ConversationName)
	require.Equal(t, "hello", res.Text)
}

func TestResolveUnknownKeyUnresolved(t *testing.T) {
	s := memstore.New()
	addContact(t, s, "alice", randomKey(t))
	addConversation(t, s, "alice", "c1")

	r := NewResolver(s, s)
	// Sealed with a key no contact holds.
	_, err := r.Resolve(context.Background(), sealEnvelope(t, randomKey(t), "c1", "hello"))
	require.ErrorIs(t, err, ErrUnresolved)
}

func TestResolveNoCrossContactFalsePositive(t *testing.T) {
	s := memstore.New()
	k1 := randomKey(t)
	k2 := randomKey(t)
	// "alice" sorts first and is tried first; the envelope must still land
	// on "bob" and only "bob".
	addContact(t, s, "alice", k1)
	addContact(t, s, "bob", k2)
	addConversation(t, s, "alice", "calice")
	addConversation(t, s, "bob", "cbob")

	r := NewResolver(s, s)
	res, err := r.Resolve(context.Background(), sealEnvelope(t, k2, "cbob", "hi"))
	require.NoError(t, err)
	require.Equal(t, "bob", res.Contact.Name)
	require.Equal(t, "cbob", res.ConversationName)
}

func TestResolveRejectsRegistryMismatch(t *testing.T) {
	s := memstore.New()
	key := randomKey(t)
	addContact(t, s, "alice", key)
	// The conversation the ciphertext names is registered to someone else.
	addContact(t, s, "bob", randomKey(t))
	addConversation(t, s, "bob", "cbob")

	r := NewResolver(s, s)
	_, err := r.Resolve(context.Background(), sealEnvelope(t, key, "cbob", "hi"))
	require.ErrorIs(t, err, ErrUnresolved)
}

func TestResolveUnregisteredConversationUnresolved(t *testing.T) {
	s := memstore.New()
	key := randomKey(t)
	addContact(t, s, "alice", key)

	r := NewResolver(s, s)
	_, err := r.Resolve(context.Background(), sealEnvelope(t, key, "never-registered", "hi"))
	require.ErrorIs(t, err, ErrUnresolved)
}

func TestResolveEmptyContactSetUnresolved(t *testing.T) {
	s := memstore.New()

	r := NewResolver(s, s)
	_, err := r.Resolve(context.Background(), sealEnvelope(t, randomKey(t), "c1", "hi"))
	require.ErrorIs(t, err, ErrUnresolved)
}

func TestResolveHonorsCancelledContext(t *testing.T) {
	s := memstore.New()
	key := randomKey(t)
	addContact(t, s, "alice", key)
	addConversation(t, s, "alice", "c1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewResolver(s, s)
	_, err := r.Resolve(ctx, sealEnvelope(t, key, "c1", "hi"))
	require.ErrorIs(t, err, context.Canceled)
}
