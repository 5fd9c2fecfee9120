package receiver

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"onion_chat/internal/cryptographic/encryption"
	"onion_chat/internal/model"
	"onion_chat/internal/service/notify"
	"onion_chat/internal/service/resolver"
	"onion_chat/internal/store/memstore"
	"onion_chat/internal/worker"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	store  *memstore.Store
	server *httptest.Server
	key    []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()

	key := make([]byte, model.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	require.NoError(t, s.InsertContact(ctx, &model.Contact{Name: "alice", Key: key, Address: "alice.onion"}))
	_, err = s.InsertConversation(ctx, "alice", "c1")
	require.NoError(t, err)

	pool := worker.NewPool(2, 8, time.Second)
	t.Cleanup(pool.Halt)

	recv := NewReceiver(resolver.NewResolver(s, s), s, notify.NewMemoryNotifier(), pool)
	server := httptest.NewServer(recv.Router())
	t.Cleanup(server.Close)

	return &fixture{store: s, server: server, key: key}
}

func (f *fixture) post(t *testing.T, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(f.server.URL+"/txt", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func sealEnvelope(t *testing.T, key []byte, conversationName, text string) []byte {
	t.Helper()
	convoEncrypt, err := encryption.Seal(key, []byte(conversationName))
	require.NoError(t, err)
	msgEncrypt, err := encryption.Seal(key, []byte(text))
	require.NoError(t, err)

	body, err := json.Marshal(&model.Envelope{ConvoEncrypt: convoEncrypt, MsgEncrypt: msgEncrypt})
	require.NoError(t, err)
	return body
}

func TestReceiveResolvedEnvelopeAppendsMessage(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, sealEnvelope(t, f.key, "c1", "hello"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		msgs, err := f.store.ListMessages(context.Background(), "c1")
		return err == nil && len(msgs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	msgs, err := f.store.ListMessages(context.Background(), "c1")
	require.NoError(t, err)
	require.Equal(t, "alice", msgs[0].ContactName)
	require.Equal(t, "hello", msgs[0].Text)
	require.NotZero(t, msgs[0].Timestamp)
}

func TestReceiveUnresolvedEnvelopeDroppedSilently(t *testing.T) {
	f := newFixture(t)

	unknownKey := make([]byte, model.KeySize)
	_, err := rand.Read(unknownKey)
	require.NoError(t, err)

	// The response must not reveal that nothing matched.
	resp := f.post(t, sealEnvelope(t, unknownKey, "c1", "probe"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	time.Sleep(100 * time.Millisecond)
	msgs, err := f.store.ListMessages(context.Background(), "c1")
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestReceiveMalformedBodyAckedAndDropped(t *testing.T) {
	f := newFixture(t)

	resp := f.post(t, []byte("not json"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	time.Sleep(50 * time.Millisecond)
	msgs, err := f.store.ListMessages(context.Background(), "c1")
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestReceiveConcurrentEnvelopes(t *testing.T) {
	f := newFixture(t)

	const n = 10
	for i := 0; i < n; i++ {
		f.post(t, sealEnvelope(t, f.key, "c1", "msg"))
	}

	require.Eventually(t, func() bool {
		msgs, err := f.store.ListMessages(context.Background(), "c1")
		return err == nil && len(msgs) == n
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReceiveRejectsNonPost(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/txt")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
