package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/havenlabs/haven/backend/internal/analysis/sentiment"
	"github.com/havenlabs/haven/backend/internal/config"
	"github.com/havenlabs/haven/backend/internal/handler"
	"github.com/havenlabs/haven/backend/internal/model/selfcare"
	"github.com/havenlabs/haven/backend/internal/service/ai"
	"github.com/havenlabs/haven/backend/internal/service/companion"
	"github.com/havenlabs/haven/backend/internal/service/session"
	"github.com/havenlabs/haven/backend/internal/service/speech"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize session store and sentiment classifier
	sessionStore := session.NewService()
	classifier := sentiment.NewClassifier(nil)
	selfcareStore := selfcare.NewMemoryStore(selfcare.Seed())

	// Initialize chat backend provider
	var provider ai.Provider
	if cfg.AI.Enabled() {
		provider, err = ai.New(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize chat backend: %v", err)
			log.Println("continuing without companion replies - 请检查聊天后端相关环境变量")
			provider = nil
		} else {
			log.Printf("chat backend initialized: %s", provider.Name())
		}
	} else {
		log.Println("聊天后端凭证未配置，跳过 AI 功能初始化")
	}

	companionSvc := companion.NewService(sessionStore, classifier, provider, cfg.AI)

	// Initialize Speech service
	var speechSvc *speech.Service
	if cfg.Speech.Enabled {
		speechSvc = speech.NewService(cfg.Speech)
		log.Println("speech service initialized successfully")
	} else {
		log.Println("语音服务未配置，跳过语音功能初始化")
	}

	router := handler.NewRouter(sessionStore, companionSvc, speechSvc, selfcareStore, cfg.Server.AllowedOrigins)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Haven backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
