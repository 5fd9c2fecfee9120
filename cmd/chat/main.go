package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"onion_chat/internal/config"
	contactRepo "onion_chat/internal/repository/contact"
	conversationRepo "onion_chat/internal/repository/conversation"
	messageRepo "onion_chat/internal/repository/message"
	"onion_chat/internal/repository/sequence"
	"onion_chat/internal/service/app"
	"onion_chat/internal/service/dispatcher"
	"onion_chat/internal/service/feed"
	"onion_chat/internal/service/notify"
	"onion_chat/internal/service/receiver"
	"onion_chat/internal/service/resolver"
	"onion_chat/internal/store"
	"onion_chat/internal/store/memstore"
	"onion_chat/internal/transport"
	"onion_chat/internal/utils/log"
	"onion_chat/internal/worker"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log.Init(cfg.Debug)
	defer log.Sync()

	ctx := context.Background()

	// No messaging is possible without the anonymous endpoint, so it comes
	// up before anything else and its failure is fatal.
	tor, err := transport.StartTor(ctx, transport.TorConfig{
		DataDir: cfg.Tor.DataDir,
		Port:    cfg.Tor.Port,
		Verbose: cfg.Tor.Verbose,
	})
	if err != nil {
		log.Fatal("anonymous transport startup failed", zap.Error(err))
	}
	defer tor.Close()
	log.Info("onion service published", zap.String("address", tor.Address()))

	contacts, conversations, messages := initStores(ctx, cfg)
	notifier := initNotifier(cfg)

	pool := worker.NewPool(cfg.Pool.Workers, cfg.Pool.QueueSize, cfg.Pool.TaskTimeout)
	defer pool.Halt()

	torClient, err := tor.Client(ctx)
	if err != nil {
		log.Fatal("tor client init failed", zap.Error(err))
	}

	sender := transport.NewHTTPSender(torClient)
	disp := dispatcher.NewDispatcher(contacts, conversations, messages, notifier, sender, pool, cfg.Tor.SendTimeout)
	application := app.NewApp(contacts, conversations, messages, disp)

	if _, err := application.BootstrapPrimaryUser(ctx, cfg.User, tor.Address()); err != nil {
		log.Fatal("primary user bootstrap failed", zap.Error(err))
	}

	res := resolver.NewResolver(contacts, conversations)
	recv := receiver.NewReceiver(res, messages, notifier, pool)
	go func() {
		if err := recv.Serve(tor.Listener()); err != nil {
			log.Error("inbound endpoint stopped", zap.Error(err))
		}
	}()

	liveFeed := feed.NewFeed(messages, notifier)
	go func() {
		if err := http.ListenAndServe(cfg.Feed.Listen, liveFeed.Router()); err != nil {
			log.Error("feed endpoint stopped", zap.Error(err))
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	<-done
	log.Info("shutting down")
}

func initStores(ctx context.Context, cfg *config.Config) (store.ContactStore, store.ConversationStore, store.MessageLog) {
	if cfg.Store.Backend == "memory" {
		mem := memstore.New()
		return mem, mem, mem
	}

	db, err := initMongo(ctx, cfg.Store.MongoURI)
	if err != nil {
		log.Fatal("mongo connect failed", zap.Error(err))
	}

	seq := sequence.NewSequence(db.Database(cfg.Store.Database))
	contacts := contactRepo.NewContactRepo(db.Database(cfg.Store.Database))
	conversations := conversationRepo.NewConversationRepo(db.Database(cfg.Store.Database), seq)
	messages := messageRepo.NewMessageRepo(db.Database(cfg.Store.Database), seq)

	if err := contacts.EnsureIndexes(ctx); err != nil {
		log.Fatal("contact index init failed", zap.Error(err))
	}
	if err := conversations.EnsureIndexes(ctx); err != nil {
		log.Fatal("conversation index init failed", zap.Error(err))
	}
	if err := messages.EnsureIndexes(ctx); err != nil {
		log.Fatal("message index init failed", zap.Error(err))
	}

	return contacts, conversations, messages
}

func initNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Store.RedisAddr == "" {
		return notify.NewMemoryNotifier()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Store.RedisAddr,
	})
	return notify.NewRedisNotifier(rdb)
}

func initMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return client, client.Ping(ctx, nil)
}
