package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"onion_chat/internal/model"

	"github.com/stretchr/testify/require"
)

func hostOf(server *httptest.Server) string {
	return strings.TrimPrefix(server.URL, "http://")
}

func TestHTTPSenderPostsEnvelope(t *testing.T) {
	var gotPath, gotContentType string
	var gotEnvelope model.Envelope

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotEnvelope))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	envelope := &model.Envelope{
		ConvoEncrypt: []byte("convo-ct"),
		MsgEncrypt:   []byte("msg-ct"),
	}

	sender := NewHTTPSender(server.Client())
	err := sender.Send(context.Background(), hostOf(server), envelope)
	require.NoError(t, err)
	require.Equal(t, EnvelopePath, gotPath)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, envelope.ConvoEncrypt, gotEnvelope.ConvoEncrypt)
	require.Equal(t, envelope.MsgEncrypt, gotEnvelope.MsgEncrypt)
}

func TestHTTPSenderNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.Client())
	err := sender.Send(context.Background(), hostOf(server), &model.Envelope{})
	require.Error(t, err)
}

func TestHTTPSenderUnreachableAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	address := hostOf(server)
	server.Close()

	sender := NewHTTPSender(http.DefaultClient)
	err := sender.Send(context.Background(), address, &model.Envelope{})
	require.Error(t, err)
}

func TestHTTPSenderHonorsContext(t *testing.T) {
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	sender := NewHTTPSender(server.Client())
	start := time.Now()
	err := sender.Send(ctx, hostOf(server), &model.Envelope{})
	require.Error(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
}
