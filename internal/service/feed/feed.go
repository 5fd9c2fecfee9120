package feed

import (
	"context"
	"net/http"

	"onion_chat/internal/service/notify"
	"onion_chat/internal/store"
	"onion_chat/internal/utils/log"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type (
	// Feed is the subscribable live view over the message log: a websocket
	// per conversation that delivers the current snapshot immediately and a
	// fresh one after every store update event. It binds to a local address
	// only; nothing here ever touches the anonymous transport.
	Feed struct {
		messages store.MessageLog
		notifier notify.Notifier
	}
)

func NewFeed(messages store.MessageLog, notifier notify.Notifier) *Feed {
	return &Feed{
		messages: messages,
		notifier: notifier,
	}
}

func (f *Feed) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/feed/{conversation}", f.HandleSubscribe()).Methods(http.MethodGet)
	return r
}

func (f *Feed) HandleSubscribe() http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // local-only listener
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		conversationName := vars["conversation"]
		if conversationName == "" {
			http.Error(w, "conversation cannot be empty", http.StatusBadRequest)
			return
		}

		events, cancel, err := f.notifier.Subscribe(r.Context(), conversationName)
		if err != nil {
			http.Error(w, "subscribe failed", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cancel()
			http.Error(w, "Failed to upgrade", http.StatusInternalServerError)
			return
		}

		go f.stream(conn, conversationName, events, cancel)
	}
}

func (f *Feed) stream(conn *websocket.Conn, conversationName string, events <-chan string, cancel func()) {
	defer cancel()
	defer conn.Close()

	// Drain the client side so we notice a disconnect.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := f.pushSnapshot(conn, conversationName); err != nil {
		return
	}

	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
			if err := f.pushSnapshot(conn, conversationName); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func (f *Feed) pushSnapshot(conn *websocket.Conn, conversationName string) error {
	messages, err := f.messages.ListMessages(context.Background(), conversationName)
	if err != nil {
		log.Error("feed snapshot query failed",
			zap.String("conversation", conversationName), zap.Error(err))
		return err
	}
	return conn.WriteJSON(messages)
}
