package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/doczoek/chat-core/appconfig"
	"github.com/doczoek/chat-core/chat"
	"github.com/doczoek/chat-core/handlers"
	"github.com/doczoek/chat-core/llm"
	"github.com/doczoek/chat-core/supabase"
	"go.uber.org/zap"
)

func main() {
	dotenv.LoadEnv()

	// load config file
	ccfgg := &appconfig.AppConfig{}
	err := config.LoadConfig("config.ini", ccfgg)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if ccfgg.HTTPPort == "" {
		ccfgg.HTTPPort = ":8080"
	}
	if ccfgg.ChatModel == "" {
		ccfgg.ChatModel = "gpt-4o-mini"
	}
	if ccfgg.EmbeddingModel == "" {
		ccfgg.EmbeddingModel = "text-embedding-3-small"
	}

	supabaseClient := supabase.NewClient()
	chatClient := llm.NewOpenAIClient(ccfgg.ChatModel)
	embedder := llm.NewOpenAIEmbeddingClient(ccfgg.EmbeddingModel)

	retriever := chat.NewRetriever(embedder, supabaseClient, supabaseClient, supabaseClient, supabaseClient)
	chatService := chat.ProvideChatService(chat.ChatServiceConfig{
		Client:    chatClient,
		Retriever: retriever,
		History:   supabaseClient,
		Documents: supabaseClient,
		Machines:  supabaseClient,
		Signer:    supabaseClient,
		Tracker:   supabaseClient,
		Auth:      supabaseClient,
	})
	chatHandler := handlers.ProvideChatHandler(chatService)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", chatHandler.Handle)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:         ccfgg.HTTPPort,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	ctx := getCancellableContext()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Starting chat-core", zap.String("port", ccfgg.HTTPPort), zap.String("model", ccfgg.ChatModel))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// catch SIGINT/SIGTERM -> cancel
func getCancellableContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		cancel()
	}()

	return ctx
}
