package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/gadeShivani/iso20022-rag/internal/pipeline"
	"github.com/gadeShivani/iso20022-rag/internal/session"
)

const (
	maxDocumentSize = 1 << 20
	sessionTTL      = 24 * time.Hour
)

// Analyzer is the part of pipeline.Analyzer the bot needs.
type Analyzer interface {
	Analyze(ctx context.Context, xmlText, model, query string) (*pipeline.Report, error)
}

type Bot struct {
	api        *tgbotapi.BotAPI
	store      session.Store
	analyzer   Analyzer
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

func New(token string, store session.Store, analyzer Analyzer, model string, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:        api,
		store:      store,
		analyzer:   analyzer,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Bot started", zap.String("username", b.api.Self.UserName), zap.String("model", b.model))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	var (
		name    string
		xmlText string
		query   string
	)
	switch {
	case message.Document != nil:
		if !isXMLDocument(message.Document.FileName, message.Document.MimeType) {
			b.sendMessage(message.Chat.ID, "Please send an ISO 20022 message as an .xml file or as text.")
			return
		}
		if message.Document.FileSize > maxDocumentSize {
			b.sendErrorMessage(message.Chat.ID, "That file is too large. The limit is 1 MB.")
			return
		}
		text, err := b.download(ctx, message.Document.FileID)
		if err != nil {
			b.logger.Error("Failed to download document",
				zap.Error(err),
				zap.String("file_name", message.Document.FileName),
				zap.Int64("chat_id", message.Chat.ID))
			b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't download your file. Please try again.")
			return
		}
		name, xmlText, query = message.Document.FileName, text, strings.TrimSpace(message.Caption)
	case looksLikeXML(message.Text):
		name, xmlText = "message.xml", message.Text
	default:
		b.sendMessage(message.Chat.ID, "Send me an ISO 20022 XML message and I'll summarise it. Use /help to see what I can do.")
		return
	}

	reply, err := b.process(ctx, message.Chat.ID, name, xmlText, query)
	if err != nil {
		b.sendErrorMessage(message.Chat.ID, userError(err))
		return
	}
	b.sendReport(message.Chat.ID, message.MessageID, reply)
}

// process analyses a fresh document and remembers it for /ask. Documents that fail
// to parse are not kept.
func (b *Bot) process(ctx context.Context, chatID int64, name, xmlText, query string) (string, error) {
	report, err := b.analyzer.Analyze(ctx, xmlText, b.model, query)
	if err != nil {
		b.logger.Warn("Failed to analyze document",
			zap.Error(err),
			zap.String("file_name", name),
			zap.Int64("chat_id", chatID))
		if isInputError(err) {
			return "", err
		}
	}

	doc := &session.Document{ChatID: chatID, Name: name, XML: xmlText}
	if report != nil {
		doc.MessageType = report.Message.Type()
	}
	if serr := b.store.SaveDocument(ctx, doc); serr != nil {
		b.logger.Error("Failed to save document", zap.Error(serr), zap.Int64("chat_id", chatID))
	}
	if pruned, perr := b.store.Prune(ctx, sessionTTL); perr == nil && pruned > 0 {
		b.logger.Debug("Pruned idle documents", zap.Int("count", pruned))
	}

	if err != nil {
		return "", err
	}
	return formatReport(report), nil
}

// ask re-analyses the chat's last document with a question.
func (b *Bot) ask(ctx context.Context, chatID int64, query string) (string, error) {
	doc, err := b.store.GetDocument(ctx, chatID)
	if err != nil {
		return "", err
	}
	if err := b.store.TouchDocument(ctx, chatID); err != nil {
		b.logger.Error("Failed to touch document", zap.Error(err), zap.Int64("chat_id", chatID))
	}

	report, err := b.analyzer.Analyze(ctx, doc.XML, b.model, query)
	if err != nil {
		b.logger.Warn("Failed to answer question",
			zap.Error(err),
			zap.String("file_name", doc.Name),
			zap.Int64("chat_id", chatID))
		return "", err
	}
	return formatReport(report), nil
}

func (b *Bot) download(ctx context.Context, fileID string) (string, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download file: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if len(data) > maxDocumentSize {
		return "", errors.New("file exceeds size limit")
	}
	return string(data), nil
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "types":
		b.sendMarkdown(message.Chat.ID, formatTypes())
	case "ask":
		b.handleAsk(ctx, message)
	case "forget":
		if err := b.store.DeleteDocument(ctx, message.Chat.ID); err != nil {
			b.logger.Error("Failed to delete document", zap.Error(err), zap.Int64("chat_id", message.Chat.ID))
		}
		b.sendMessage(message.Chat.ID, "Done. I no longer hold a document for this chat.")
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleAsk(ctx context.Context, message *tgbotapi.Message) {
	query := strings.TrimSpace(message.CommandArguments())
	if query == "" {
		b.sendMessage(message.Chat.ID, "Usage: /ask <question about your last message>")
		return
	}

	reply, err := b.ask(ctx, message.Chat.ID, query)
	if err != nil {
		b.sendErrorMessage(message.Chat.ID, userError(err))
		return
	}
	b.sendReport(message.Chat.ID, message.MessageID, reply)
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome! 🏦
I summarise ISO 20022 payment messages in plain business language.

Send me a pacs.008, pacs.002, camt.053 or pain.001 message, pasted as text or attached as an .xml file. Add a caption to ask a specific question.
Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the bot
/help - Show this help message
/types - Show supported message types
/ask <question> - Ask about your last message
/forget - Drop your last message

You can send:
- XML pasted as a text message
- .xml documents, with an optional question as caption

Every message is answered three ways and the most confident answer is returned.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) sendReport(chatID int64, replyToID int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyToMessageID = replyToID

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send report",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
