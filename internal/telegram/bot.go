package telegram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofrs/flock"
	"github.com/netgram/netgram/internal/catalog"
	"github.com/netgram/netgram/internal/ingest"
	"github.com/netgram/netgram/pkg/logger"
)

var (
	ErrAlreadyRunning = errors.New("another bot instance is already running on this host")
	ErrMissingToken   = errors.New("a bot token (BOT_TOKEN) is required")

	log = logger.Get("Bot")
)

const searchResultLimit = 5

type (
	Config struct {
		Token       string  `yaml:"token" env:"BOT_TOKEN"`
		ChannelID   int64   `yaml:"channel_id" env:"CHANNEL_ID"`
		AdminIDs    []int64 `yaml:"admin_ids" env:"ADMIN_IDS" env-separator:","`
		LockPath    string  `yaml:"lock_path" env:"BOT_LOCK_PATH"`
		PollTimeout int     `yaml:"poll_timeout" env:"BOT_POLL_TIMEOUT" env-default:"60"`
	}

	Ingester interface {
		Submit(ctx context.Context, event ingest.FileEvent) error
	}

	Catalog interface {
		SearchMovies(ctx context.Context, query string, offset int, limit int) ([]*catalog.Record, error)
		CountMovies(ctx context.Context) (int, error)
	}

	sender interface {
		Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	}

	// Bot long-polls the Telegram Bot API. Documents posted to the catalog
	// channel are handed to the ingester, and chat commands are answered
	// using the catalog.
	Bot struct {
		config   Config
		ingester Ingester
		catalog  Catalog
		sender   sender
	}
)

func (config *Config) lockPath() string {
	if config.LockPath != "" {
		return config.LockPath
	}

	return filepath.Join(os.TempDir(), "netgram-bot.lock")
}

func New(config Config, ingester Ingester, catalog Catalog) *Bot {
	return &Bot{config: config, ingester: ingester, catalog: catalog}
}

// Run connects to Telegram and processes updates until the context
// is cancelled. Only one bot may run per lock file, as Telegram rejects
// concurrent long-polling for the same token.
func (bot *Bot) Run(ctx context.Context) error {
	if bot.config.Token == "" {
		return ErrMissingToken
	}

	lock := flock.New(bot.config.lockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire bot lock %s: %w", bot.config.lockPath(), err)
	}
	if !locked {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warnf("Failed to release bot lock: %v\n", err)
		}
	}()

	api, err := tgbotapi.NewBotAPI(bot.config.Token)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	bot.sender = api
	log.Emit(logger.SUCCESS, "Authorized as @%s, watching channel %d\n", api.Self.UserName, bot.config.ChannelID)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = bot.config.PollTimeout
	updates := api.GetUpdatesChan(updateConfig)
	defer api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			log.Emit(logger.STOP, "Stopping bot\n")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			bot.handleUpdate(ctx, update)
		}
	}
}

func (bot *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil {
		message = update.ChannelPost
	}
	if message == nil {
		return
	}

	if message.IsCommand() {
		bot.handleCommand(ctx, message)
		return
	}

	if message.Chat != nil && message.Chat.ID == bot.config.ChannelID {
		bot.handleUpload(ctx, message)
	}
}

func (bot *Bot) handleUpload(ctx context.Context, message *tgbotapi.Message) {
	event, ok := fileEventFromMessage(message)
	if !ok {
		return
	}

	log.Debugf("Received %q in message %d\n", event.FileName, event.MessageID)
	if err := bot.ingester.Submit(ctx, event); err != nil {
		log.Errorf("Failed to submit %q (message %d) for ingestion: %v\n", event.FileName, event.MessageID, err)
	}
}

func (bot *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		bot.reply(message, startMessage)
	case "search":
		bot.handleSearch(ctx, message)
	case "stats":
		count, err := bot.catalog.CountMovies(ctx)
		if err != nil {
			log.Errorf("Failed to count movies: %v\n", err)
			bot.reply(message, failureMessage)
			return
		}

		bot.reply(message, formatStats(count))
	case "auth":
		if bot.isAdmin(message) {
			bot.reply(message, authorizedMessage)
		}
	}
}

func (bot *Bot) handleSearch(ctx context.Context, message *tgbotapi.Message) {
	query := message.CommandArguments()
	if query == "" {
		bot.reply(message, searchUsageMessage)
		return
	}

	records, err := bot.catalog.SearchMovies(ctx, query, 0, searchResultLimit)
	if err != nil {
		log.Errorf("Failed to search for %q: %v\n", query, err)
		bot.reply(message, failureMessage)
		return
	}

	bot.reply(message, formatSearchResults(records))
}

func (bot *Bot) isAdmin(message *tgbotapi.Message) bool {
	return message.From != nil && slices.Contains(bot.config.AdminIDs, message.From.ID)
}

func (bot *Bot) reply(to *tgbotapi.Message, text string) {
	if bot.sender == nil {
		return
	}

	msg := tgbotapi.NewMessage(to.Chat.ID, text)
	msg.ReplyToMessageID = to.MessageID
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := bot.sender.Send(msg); err != nil {
		log.Warnf("Failed to reply to message %d: %v\n", to.MessageID, err)
	}
}

// fileEventFromMessage converts a message carrying a document in to a
// file event, returning false if the message has no document.
func fileEventFromMessage(message *tgbotapi.Message) (ingest.FileEvent, bool) {
	if message.Document == nil || message.Chat == nil {
		return ingest.FileEvent{}, false
	}

	return ingest.FileEvent{
		FileName:  message.Document.FileName,
		FileID:    message.Document.FileID,
		MessageID: int64(message.MessageID),
		ChatID:    message.Chat.ID,
		FileSize:  int64(message.Document.FileSize),
	}, true
}
