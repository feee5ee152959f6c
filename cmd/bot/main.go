// Package main contains the entrypoint for the reminder bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/remindbot/internal/bot"
	"github.com/edgard/remindbot/internal/bot/handlers"
	"github.com/edgard/remindbot/internal/bot/tasks"
	"github.com/edgard/remindbot/internal/config"
	"github.com/edgard/remindbot/internal/database"
	"github.com/edgard/remindbot/internal/logger"
	"github.com/edgard/remindbot/internal/reminder"
	"github.com/edgard/remindbot/internal/telegram"

	_ "time/tzdata"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db, bot, scheduler),
// handles graceful shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	loc := cfg.Location()

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, loc, log)

	// The router replies through a dispatcher bound to the bot, so the
	// default handler resolves it at call time.
	var router *handlers.Router
	botOpts := telegram.BotOptions(log, func(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
		router.Handle(ctx, update)
	})
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	if err := telegram.ResetCommands(ctx, tg, log); err != nil {
		log.Warn("Could not clear bot command menu", "error", err)
	}

	dispatcher := reminder.NewDispatcher(tg, log)

	router = handlers.NewRouter(handlers.HandlerDeps{
		Logger:     log,
		Config:     cfg,
		Store:      store,
		Dispatcher: dispatcher,
	})
	if err := telegram.RegisterHandlers(tg, log, handlers.RegisterAllCommands(router)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger:     log,
		Store:      store,
		Dispatcher: dispatcher,
		Config:     cfg,
	})
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, loc, taskMap)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, cfg, store, tg, sched)

	log.Info("Starting bot...", "timezone", loc.String())
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
