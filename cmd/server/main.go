package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"devforum/internal/api"
	"devforum/internal/auth"
	"devforum/internal/config"
	"devforum/internal/integration"
	"devforum/internal/metrics"
	"devforum/internal/model"
	"devforum/internal/notify"
	"devforum/internal/service"
	"devforum/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// 初始化配置
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		os.Exit(1)
	}

	// 初始化logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if err := run(cfg); err != nil {
		logrus.WithError(err).Error("server stopped with error")
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		return fmt.Errorf("initialise repository: %w", err)
	}
	if err := model.SeedDefaultRoles(ctx, repo); err != nil {
		return err
	}

	store, err := storage.NewStorage(cfg)
	if err != nil {
		return fmt.Errorf("initialise storage: %w", err)
	}

	m := metrics.New()

	var cache redis.UniversalClient
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		cache = client
	}

	dispatcher, err := newDispatcher(cfg, cache, m)
	if err != nil {
		return err
	}

	sessions, err := auth.NewManager(cfg.SecretKey, cfg.JWTIssuer, time.Duration(cfg.JWTExpirationMinutes)*time.Minute)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenCodec(cfg.SecretKey, cfg.JWTIssuer)
	if err != nil {
		return err
	}

	users := service.NewUserService(cfg, repo, sessions, tokens, store, dispatcher, m)
	posts := service.NewPostService(cfg, repo, m)
	site := service.NewSiteService(cfg, repo, dispatcher, m)
	httpHandler := api.NewHTTPHandler(repo, sessions, users, posts, site, m)

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// 添加中间件
	r.Use(api.RequestIDMiddleware())
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(api.MetricsMiddleware(m))
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(m.Handler()))
	httpHandler.Mount(r)

	if localProvider, ok := store.(storage.LocalBaseDirProvider); ok {
		publicPrefix := strings.TrimSpace(cfg.StoragePublicBaseURL)
		if publicPrefix == "" {
			publicPrefix = "/files"
		}
		if !strings.HasPrefix(publicPrefix, "http://") && !strings.HasPrefix(publicPrefix, "https://") {
			if !strings.HasPrefix(publicPrefix, "/") {
				publicPrefix = "/" + publicPrefix
			}
			r.Static(publicPrefix, localProvider.LocalBaseDir())
		}
	}

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	// 创建HTTP服务器
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logrus.WithField("host", serverHost).Info("服务器启动")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			_ = dispatcher.Close(context.Background())
			_ = repo.Close()
			return fmt.Errorf("服务器启动失败: %w", err)
		}
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("http shutdown incomplete")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("notification queue did not drain")
	}
	if err := repo.Close(); err != nil {
		logrus.WithError(err).Warn("failed to close database")
	}
	return nil
}

// newDispatcher wires the notification handlers onto the configured queue.
func newDispatcher(cfg config.Config, cache redis.UniversalClient, m *metrics.Metrics) (notify.Dispatcher, error) {
	router := notify.NewRouter()

	mailer, err := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:       cfg.MailHost,
		Port:       cfg.MailPort,
		Username:   cfg.MailUsername,
		Password:   cfg.MailPassword,
		From:       cfg.MailFrom,
		SenderName: cfg.MailSenderName,
	})
	if err != nil {
		logrus.WithError(err).Warn("mail delivery disabled")
		router.Register(notify.KindEmail, notify.HandlerFunc(func(context.Context, notify.Message) error {
			return errors.New("mail delivery disabled")
		}))
	} else {
		router.Register(notify.KindEmail, notify.EmailHandler(mailer))
	}

	router.Register(notify.KindSubscribe, integration.SubscribeHandler(integration.NewMailgun(cfg.MailgunAPIBase, cfg.MailgunAPIKey)))
	geo := integration.NewGeoIP(cfg.GeoIPBaseURL, cache, time.Duration(cfg.GeoIPCacheTTLMinutes)*time.Minute)
	router.Register(notify.KindGeolocate, integration.GeolocateHandler(geo, m))

	switch strings.ToLower(strings.TrimSpace(cfg.NotifyBackend)) {
	case "", "memory":
		return notify.NewMemoryQueue(router, cfg.NotifyWorkers, cfg.NotifyQueueSize, m), nil
	case "rabbitmq":
		q, err := notify.NewRabbitQueue(cfg.AMQPURL, cfg.NotifyQueueName, cfg.NotifyWorkers, cfg.NotifyQueueSize, router, m)
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unsupported notify backend: %s", cfg.NotifyBackend)
	}
}

// CORSMiddleware CORS跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, X-Request-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware 日志记录中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// 处理请求
		c.Next()
		// 记录请求结束
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   duration.String(),
			"size":       c.Writer.Size(),
			"client_ip":  c.ClientIP(),
			"request_id": api.RequestID(c),
		}).Info("http_request")
	}
}
