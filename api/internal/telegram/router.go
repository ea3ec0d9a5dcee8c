// Package telegram is a chat front for the assistant: users send a photo
// and get the description back as a reply.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"visual-assist/api/internal/assist"
	"visual-assist/api/internal/logger"
)

const maxMessageLen = 3900

// BotAPI is the part of *tgbotapi.BotAPI the router needs.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

type Describer interface {
	Describe(ctx context.Context, image []byte, mode assist.Mode) (string, error)
}

type Router struct {
	Bot       BotAPI
	Assistant Describer
	Timeout   time.Duration
	MaxBytes  int64

	httpc *http.Client
	modes modeStore
}

func NewRouter(bot BotAPI, assistant Describer, timeout time.Duration, maxBytes int64) *Router {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Router{
		Bot:       bot,
		Assistant: assistant,
		Timeout:   timeout,
		MaxBytes:  maxBytes,
		httpc:     &http.Client{Timeout: 60 * time.Second},
	}
}

const helpText = "Send me a photo and I will describe it.\n" +
	"/text - read the text in the photo\n" +
	"/diagram - describe a diagram or chart\n" +
	"/navigation - tell what is in your path\n" +
	"/mode - show the current mode\n" +
	"You can also write the mode as the photo caption."

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	cid := msg.Chat.ID

	if msg.IsCommand() {
		r.handleCommand(cid, msg.Command())
		return
	}

	if fileID := imageFileID(msg); fileID != "" {
		mode := r.modes.get(cid)
		if m, ok := captionMode(msg.Caption); ok {
			mode = m
		}
		r.describePhoto(ctx, msg, fileID, mode)
		return
	}

	if msg.Text != "" {
		r.send(cid, helpText)
	}
}

func (r *Router) handleCommand(cid int64, cmd string) {
	switch strings.ToLower(cmd) {
	case "start", "help":
		r.send(cid, helpText)
	case "mode":
		r.send(cid, "Current mode: "+r.modes.get(cid).String())
	default:
		if m, ok := assist.ParseMode(cmd); ok {
			r.modes.set(cid, m)
			r.send(cid, "Mode set to "+m.String()+". Send a photo.")
			return
		}
		r.send(cid, "Unknown command. Try /help")
	}
}

func (r *Router) describePhoto(ctx context.Context, msg *tgbotapi.Message, fileID string, mode assist.Mode) {
	cid := msg.Chat.ID
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.fail(cid, fmt.Errorf("file url: %w", scrub(err)))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	img, err := r.download(ctx, url)
	if err != nil {
		r.fail(cid, fmt.Errorf("download: %w", err))
		return
	}
	desc, err := r.Assistant.Describe(ctx, img, mode)
	if err != nil {
		r.fail(cid, err)
		return
	}
	if rs := []rune(desc); len(rs) > maxMessageLen {
		desc = string(rs[:maxMessageLen]) + "…"
	}
	reply := tgbotapi.NewMessage(cid, desc)
	reply.ReplyToMessageID = msg.MessageID
	if _, err := r.Bot.Send(reply); err != nil {
		logger.Warnf("telegram send to %d: %v", cid, scrub(err))
	}
}

func (r *Router) fail(cid int64, err error) {
	logger.L().Error("telegram assist failed", "chat_id", cid, "err", err)
	r.send(cid, "Sorry, I could not process that photo. Please try again.")
}

func (r *Router) send(cid int64, text string) {
	if _, err := r.Bot.Send(tgbotapi.NewMessage(cid, text)); err != nil {
		logger.Warnf("telegram send to %d: %v", cid, scrub(err))
	}
}

// imageFileID picks the largest photo size, or an image sent as a file.
func imageFileID(msg *tgbotapi.Message) string {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID
	}
	if d := msg.Document; d != nil && strings.HasPrefix(d.MimeType, "image/") {
		return d.FileID
	}
	return ""
}

func captionMode(caption string) (assist.Mode, bool) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(caption), "/"))
	if len(fields) == 0 {
		return "", false
	}
	return assist.ParseMode(fields[0])
}
