// launching the server, registry backing, retry queue and dispatcher
package appServer

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/pushService/config"
	"github.com/ds124wfegd/pushService/internal/database"
	"github.com/ds124wfegd/pushService/internal/dispatcher"
	"github.com/ds124wfegd/pushService/internal/identity"
	"github.com/ds124wfegd/pushService/internal/rabbitMQ"
	"github.com/ds124wfegd/pushService/internal/service"
	"github.com/ds124wfegd/pushService/internal/transport"
	"github.com/ds124wfegd/pushService/internal/worker"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	// The sender identity is all-or-nothing: without valid key material
	// every delivery would be rejected, so refuse to serve at all.
	senderIdentity, err := identity.New(cfg.Vapid.Subject, cfg.Vapid.PublicKey, cfg.Vapid.PrivateKey)
	if err != nil {
		logrus.Fatalf("Refusing to start without a valid sender identity: %s", err.Error())
	}
	if _, err := senderIdentity.Sign("https://fcm.googleapis.com", time.Time{}); err != nil {
		logrus.Fatalf("Sender identity cannot sign delivery tokens: %s", err.Error())
	}

	repo := newRepository(cfg)

	var queue rabbitMQ.Queue
	if cfg.Rabbit.Enabled {
		rmq, err := rabbitMQ.NewRabbitMQ(rabbitMQ.RabbitMQConfig{
			URL:       rabbitURL(cfg),
			QueueName: cfg.Rabbit.QueueName,
		})
		if err != nil {
			logrus.Fatalf("Failed to connect to RabbitMQ: %s", err.Error())
		}
		defer rmq.Close()
		queue = rmq
	}

	push := dispatcher.New(senderIdentity, dispatcher.Config{
		TTL:              cfg.Push.TTL,
		PerTargetTimeout: cfg.Push.PerTargetTimeout,
	}, nil)

	retryPolicy := rabbitMQ.NewRetryPolicy(cfg.Push.MaxRetryAttempts, cfg.Push.RetryBaseDelay)
	subscriptionUseCase := service.NewSubscriptionUseCase(repo)
	pushUseCase := service.NewPushUseCase(repo, push, queue, retryPolicy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if queue != nil {
		retryWorker := worker.NewRetryWorker(pushUseCase, queue, retryPolicy)
		if err := retryWorker.Start(ctx); err != nil {
			logrus.Fatalf("Failed to start retry worker: %s", err.Error())
		}
	}

	handler := transport.InitRoutes(
		transport.NewSubscriptionHandler(subscriptionUseCase),
		transport.NewPushHandler(pushUseCase),
		senderIdentity.PublicKey(),
	)

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, handler); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}

func newRepository(cfg *config.Config) database.SubscriptionRepository {
	switch cfg.Registry.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxRetries:   cfg.Redis.MaxRetries,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		return database.NewRedisRepository(client)

	case "postgres":
		db, err := newPostgresDB(&cfg.Database)
		if err != nil {
			logrus.Fatalf("Failed to connect to PostgreSQL: %s", err.Error())
		}
		if err := database.RunMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %s", err.Error())
		}
		return database.NewPostgresRepository(db)

	default:
		logrus.Warn("Using in-memory subscription registry, records will not survive a restart")
		return database.NewMemoryRepository()
	}
}

func newPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func rabbitURL(cfg *config.Config) string {
	if cfg.Rabbit.URL != "" {
		return cfg.Rabbit.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d/",
		cfg.Rabbit.Username,
		cfg.Rabbit.Password,
		cfg.Rabbit.Host,
		cfg.Rabbit.Port)
}
