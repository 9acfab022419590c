package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"

	"github.com/xxxsen/issuetracker/internal/config"
	"github.com/xxxsen/issuetracker/internal/filestore"
	"github.com/xxxsen/issuetracker/internal/handler"
	"github.com/xxxsen/issuetracker/internal/job"
	"github.com/xxxsen/issuetracker/internal/limiter"
	"github.com/xxxsen/issuetracker/internal/middleware"
	"github.com/xxxsen/issuetracker/internal/pkg/jwt"
	"github.com/xxxsen/issuetracker/internal/pkg/password"
	"github.com/xxxsen/issuetracker/internal/repo"
	"github.com/xxxsen/issuetracker/internal/schedule"
	"github.com/xxxsen/issuetracker/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "issuetracker",
		Short: "issuetracker backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run issuetracker server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "config file path")

	hashCmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "print the bcrypt hash of a password, read from stdin when omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plain := ""
			if len(args) == 1 {
				plain = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				plain = strings.TrimRight(line, "\r\n")
			}
			hash, err := password.Hash(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, hashCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type stores struct {
	users    service.UserRepository
	issues   service.IssueRepository
	comments service.CommentRepository
	health   func(ctx context.Context) error
	close    func(ctx context.Context) error
}

// openStoresFunc is swapped in tests.
var openStoresFunc = openStores

func openStores(ctx context.Context, cfg config.DatabaseConfig) (*stores, error) {
	if cfg.Type == "memory" {
		logutil.GetLogger(ctx).Warn("using in-memory store, data is lost on restart")
		mem := repo.NewMemoryStore()
		return &stores{
			users:    mem.Users(),
			issues:   mem.Issues(),
			comments: mem.Comments(),
			close:    func(context.Context) error { return nil },
		}, nil
	}
	client, err := repo.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Name)
	if err := repo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &stores{
		users:    repo.NewUserRepo(db),
		issues:   repo.NewIssueRepo(db),
		comments: repo.NewCommentRepo(db),
		health:   repo.Healthcheck(client),
		close:    disconnect(client),
	}, nil
}

func disconnect(client *mongo.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Disconnect(ctx)
	}
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := logutil.GetLogger(ctx)

	st, err := openStoresFunc(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			logger.Error("close store failed", zap.Error(err))
		}
	}()

	var redisClient *redis.Client
	if cfg.Limiter.Type == "redis" {
		redisClient, err = limiter.ConnectRedis(ctx, cfg.Limiter.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()
	}
	cooldown := limiter.New(cfg.Limiter, redisClient, "cooldown", time.Duration(cfg.CooldownSeconds)*time.Second)
	loginLimiter := limiter.New(cfg.Limiter, redisClient, "login", time.Duration(cfg.LoginRateWindowSeconds)*time.Second)

	tokens, err := jwt.NewIssuer(jwt.Config{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		SessionTTL: time.Duration(cfg.JWTTTLHours) * time.Hour,
		ResetTTL:   time.Duration(cfg.ResetTTLMinutes) * time.Minute,
		VerifyTTL:  time.Duration(cfg.VerifyTTLHours) * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("init token issuer: %w", err)
	}
	sender, err := service.NewEmailSender(cfg.Mail)
	if err != nil {
		return fmt.Errorf("init mail sender: %w", err)
	}
	files, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	if cleaner, ok := files.(filestore.TempCleaner); ok {
		scheduler := schedule.New()
		if err := scheduler.Add(job.NewUploadCleanupJob(cleaner, time.Hour), cfg.UploadCleanupSpec); err != nil {
			return fmt.Errorf("schedule upload cleanup: %w", err)
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	authService := service.NewAuthService(st.users, tokens, sender, cooldown, cfg.PublicBaseURL)
	deps := handler.RouterDeps{
		Users:        handler.NewUserHandler(authService, service.NewUserService(st.users)),
		Issues:       handler.NewIssueHandler(service.NewIssueService(st.issues)),
		Comments:     handler.NewCommentHandler(service.NewCommentService(st.comments, st.issues)),
		Files:        handler.NewFileHandler(files, cfg.PublicBaseURL, int64(cfg.MaxUploadMB)*1024*1024),
		Health:       handler.NewHealthHandler(st.health),
		Tokens:       tokens,
		LoginLimiter: loginLimiter,
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("http server listening", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	return nil
}
