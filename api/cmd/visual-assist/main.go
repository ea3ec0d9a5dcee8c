package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"visual-assist/api/internal/assist"
	"visual-assist/api/internal/assist/gcv"
	"visual-assist/api/internal/assist/gemini"
	"visual-assist/api/internal/config"
	"visual-assist/api/internal/handle"
	"visual-assist/api/internal/logger"
	"visual-assist/api/internal/telegram"
)

func main() {
	defEnv := os.Getenv("ENV_FILE")
	if defEnv == "" {
		defEnv = config.DefaultEnvFile
	}
	envFile := flag.String("env", defEnv, "optional dotenv file (also ENV_FILE)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logger.Errorf("config: %v", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.LogLevel)

	if err := run(cfg); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engines, err := buildEngines(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := engines.Close(); err != nil {
			logger.Warnf("closing engines: %v", err)
		}
	}()

	eng, err := engines.GetEngine(cfg.VisionEngine)
	if err != nil {
		return err
	}
	assistant := assist.New(eng, assist.WithMaxLabels(cfg.DiagramMaxLabels))

	h := handle.New(assistant, cfg.RequestTimeout)
	e := handle.NewServer(handle.ServerOptions{
		BodyLimit:    cfg.BodyLimit(),
		AllowOrigins: cfg.Origins(),
	}, h)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("VisualAssist server listening on %s (engine=%s)", cfg.Addr(), eng.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Infof("shutting down")
		return srv.Shutdown(sctx)
	})

	if cfg.TelegramBotToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		bot.Debug = false
		router := telegram.NewRouter(bot, assistant, cfg.RequestTimeout, int64(cfg.MaxUploadMB)<<20)
		logger.Infof("telegram bot @%s polling", bot.Self.UserName)
		g.Go(func() error { return router.Run(gctx) })
	}

	return g.Wait()
}

// buildEngines creates only the engine VISION_ENGINE selects.
func buildEngines(ctx context.Context, cfg *config.Config) (*assist.Engines, error) {
	engines := &assist.Engines{}

	switch cfg.VisionEngine {
	case "gcv", "vision", "":
		var opts []option.ClientOption
		// The SDK reads GOOGLE_APPLICATION_CREDENTIALS from the process
		// environment only; a path set in the dotenv file is passed explicitly.
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		v, err := gcv.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		engines.Vision = v
		logger.Infof("vision client initialized")
	case "gemini":
		gm, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		engines.Gemini = gm
		logger.Infof("gemini client initialized (model=%s)", cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("%w: %q", assist.ErrUnknownEngine, cfg.VisionEngine)
	}

	return engines, nil
}
