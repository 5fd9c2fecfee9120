package receiver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"onion_chat/internal/model"
	"onion_chat/internal/service/notify"
	"onion_chat/internal/service/resolver"
	"onion_chat/internal/store"
	"onion_chat/internal/transport"
	"onion_chat/internal/utils/log"
	"onion_chat/internal/worker"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type (
	// Receiver owns the inbound envelope endpoint. Every accepted envelope
	// becomes one pool task, so a slow resolution (a linear scan over many
	// contact keys) never delays the accept path. The handler response is
	// identical whether or not the envelope resolves; acceptance must not
	// leak which envelopes found a match.
	Receiver struct {
		resolver *resolver.Resolver
		messages store.MessageLog
		notifier notify.Notifier
		pool     *worker.Pool
	}
)

func NewReceiver(res *resolver.Resolver, messages store.MessageLog, notifier notify.Notifier, pool *worker.Pool) *Receiver {
	return &Receiver{
		resolver: res,
		messages: messages,
		notifier: notifier,
		pool:     pool,
	}
}

func (s *Receiver) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(transport.EnvelopePath, s.HandleEnvelope()).Methods(http.MethodPost)
	return r
}

// Serve runs the endpoint on the transport's listener until it closes.
func (s *Receiver) Serve(listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.Serve(listener)
}

func (s *Receiver) HandleEnvelope() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var envelope model.Envelope
		err := json.NewDecoder(r.Body).Decode(&envelope)

		// Ack before (and regardless of) resolution.
		w.WriteHeader(http.StatusOK)

		if err != nil {
			log.Debug("discarding undecodable envelope", zap.Error(err))
			return
		}

		receivedAt := time.Now().UnixMilli()
		submitted := s.pool.Submit(func(ctx context.Context) {
			s.processEnvelope(ctx, &envelope, receivedAt)
		})
		if !submitted {
			log.Warn("envelope dropped, worker pool saturated")
		}
	}
}

func (s *Receiver) processEnvelope(ctx context.Context, envelope *model.Envelope, receivedAt int64) {
	res, err := s.resolver.Resolve(ctx, envelope)
	if errors.Is(err, resolver.ErrUnresolved) {
		// No contact claimed it. Dropped without a trace.
		return
	}
	if err != nil {
		log.Error("envelope resolution failed", zap.Error(err))
		return
	}

	msg := &model.Message{
		ContactName:      res.Contact.Name,
		ConversationName: res.ConversationName,
		Text:             res.Text,
		Timestamp:        receivedAt,
	}
	if err := s.messages.AppendMessage(ctx, msg); err != nil {
		log.Error("append inbound message failed",
			zap.String("conversation", res.ConversationName), zap.Error(err))
		return
	}

	if err := s.notifier.Publish(ctx, res.ConversationName); err != nil {
		log.Error("publish update failed",
			zap.String("conversation", res.ConversationName), zap.Error(err))
	}
}
