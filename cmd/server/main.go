package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"go-jobfeed-crawler/internal/api"
	"go-jobfeed-crawler/internal/browser"
	"go-jobfeed-crawler/internal/config"
	"go-jobfeed-crawler/internal/scraper/linkedin"
	"go-jobfeed-crawler/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to load config")
	}
	if err := utils.InitLogger(cfg.Log.Logger()); err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to init logger")
	}
	gin.SetMode(gin.ReleaseMode)

	pwManager, err := browser.NewPlaywright(browser.LaunchConfig{
		Headless:          *cfg.Browser.Headless,
		UserAgent:         cfg.Browser.UserAgent,
		ViewportWidth:     cfg.Browser.ViewportWidth,
		ViewportHeight:    cfg.Browser.ViewportHeight,
		NavigationTimeout: cfg.Crawl.Options().NavigationTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Failed to init Playwright")
	}
	defer pwManager.Close()

	cookies, err := browser.LoadCookies(filepath.Join(cfg.Paths.Cookies, "cookies-linkedin.json"))
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Could not load linkedin cookies. Serving as guest.")
	}

	runner := api.NewBrowserRunner(
		pwManager,
		cookies,
		linkedin.NewLinkedInScraper(cfg.Crawl.Options()),
		utils.NewScreenShotDebugger(cfg.Paths.Screenshots),
	)
	handler := api.NewHandler(runner, cfg.Server.MaxConcurrent,
		time.Duration(cfg.Server.RequestTimeout)*time.Second, cfg.Crawl.DefaultCap)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: api.NewRouter(handler),
	}

	go func() {
		log.Info().Msgf("Server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("❌ Failed to start server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}
