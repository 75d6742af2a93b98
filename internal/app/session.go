package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/alert"
	"github.com/nhle/notification-center/internal/credential"
	"github.com/nhle/notification-center/internal/digest"
	"github.com/nhle/notification-center/internal/dispatch"
	"github.com/nhle/notification-center/internal/feed"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/store"
)

const pingTimeout = 3 * time.Second

// Session holds the services of one signed-in user. It is created when
// the program starts and closed on exit.
type Session struct {
	Config         *model.AppConfig
	ConfigPath     string
	Logger         *zap.Logger
	Store          *store.SQLiteStore
	Feed           *feed.Store
	Dispatcher     *dispatch.Dispatcher
	Digest         *digest.Scheduler
	DigestInterval time.Duration

	redis *redis.Client
}

// NewSession opens storage, connects the optional transports and hydrates
// the feed for cfg.User.
func NewSession(ctx context.Context, cfg *model.AppConfig, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("owner", cfg.User))

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	st, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	st.SetLogger(logger.Named("store"))

	s := &Session{
		Config: cfg,
		Logger: logger,
		Store:  st,
	}

	s.redis = connectRedis(ctx, cfg.Redis, logger)

	var effects []alert.Effect
	if s.redis != nil {
		effects = append(effects, alert.NewPushPublisher(s.redis, cfg.Redis.Prefix, cfg.User))
	}

	deliverer := newDeliverer(cfg.Email, logger)
	if deliverer != nil {
		effects = append(effects, digest.NewInstant(deliverer, cfg.Email, cfg.User))
	}

	kv := st.KV(cfg.User)
	s.Feed = feed.New(kv,
		feed.WithLogger(logger.Named("feed")),
		feed.WithSound(alert.NewBellPlayer(os.Stderr)),
		feed.WithSystemNotifier(alert.NewOSCNotifier(os.Stderr, cfg.Alerts.System.Allow)),
		feed.WithEffects(effects...),
	)
	s.Feed.Initialize(ctx)

	s.Dispatcher = dispatch.New(cfg.User, logger.Named("dispatch"), s.channels()...)

	if deliverer != nil {
		s.Digest = digest.NewScheduler(kv, s.Feed, deliverer, cfg.Email, cfg.User, logger.Named("digest"))
	}

	return s, nil
}

func (s *Session) channels() []dispatch.Channel {
	cfg := s.Config
	var channels []dispatch.Channel

	if cfg.Dispatch.Queue.Enabled {
		interval := time.Duration(cfg.Dispatch.Queue.PollIntervalSec) * time.Second
		channels = append(channels, dispatch.NewQueue(s.Store, cfg.User, interval))
	}
	if cfg.Dispatch.Synthetic.Enabled {
		interval := time.Duration(cfg.Dispatch.Synthetic.IntervalSec) * time.Second
		channels = append(channels, dispatch.NewSynthetic(interval))
	}
	if s.redis != nil {
		channels = append(channels, dispatch.NewRedis(s.redis, cfg.Redis.Prefix, cfg.User, s.Logger.Named("redis")))
	}

	return channels
}

// connectRedis returns nil when Redis is disabled or unreachable. Push
// and the Redis inbox are optional, so a failed ping only warns.
func connectRedis(ctx context.Context, cfg model.RedisConfig, logger *zap.Logger) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	password := cfg.Password
	if password == "" {
		p, ok, err := credential.Lookup(credential.RedisPasswordKey(cfg.Addr))
		if err != nil {
			logger.Warn("reading redis password from keyring", zap.Error(err))
		}
		if ok {
			password = p
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, push disabled",
			zap.String("addr", cfg.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}

	return client
}

// newDeliverer returns nil when email is not configured.
func newDeliverer(cfg model.EmailConfig, logger *zap.Logger) digest.Deliverer {
	if !cfg.Configured() {
		return nil
	}

	var password string
	if cfg.Username != "" {
		p, ok, err := credential.Lookup(credential.MailPasswordKey(cfg.Username))
		if err != nil {
			logger.Warn("reading mail password from keyring", zap.Error(err))
		}
		if ok {
			password = p
		}
	}

	d, err := digest.NewDeliverer(cfg, password)
	if err != nil {
		logger.Warn("email disabled", zap.Error(err))
		return nil
	}
	return d
}

// AskMailPassword reports whether the preferences form should offer a
// mail password field.
func (s *Session) AskMailPassword() bool {
	return s.Config.Email.Configured() && s.Config.Email.Username != ""
}

// SaveMailPassword stores the mail password in the system keyring. It
// takes effect on the next start.
func (s *Session) SaveMailPassword(password string) error {
	if err := credential.Set(credential.MailPasswordKey(s.Config.Email.Username), password); err != nil {
		return fmt.Errorf("saving mail password: %w", err)
	}
	return nil
}

// Close stops delivery and releases storage.
func (s *Session) Close() error {
	s.Dispatcher.Stop()
	s.Feed.Close()
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.Logger.Warn("closing redis", zap.Error(err))
		}
	}
	if err := s.Store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}
