package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"quiz-relay/api/internal/gemini"
	"quiz-relay/api/internal/logging"
)

// Bot — часть tgbotapi.BotAPI, которой пользуется роутер.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Generator interface {
	Generate(ctx context.Context, apiKey string, in gemini.Request) (*gemini.Response, error)
}

type Router struct {
	Bot    Bot
	Gemini Generator
	APIKey func() string
	Model  string

	log *logrus.Logger
}

func NewRouter(bot Bot, gen Generator, apiKey func() string, model string) *Router {
	return &Router{
		Bot:    bot,
		Gemini: gen,
		APIKey: apiKey,
		Model:  model,
		log:    logging.GetLogger(),
	}
}

func (r *Router) HandleCommand(upd tgbotapi.Update) {
	cid := upd.Message.Chat.ID
	switch upd.Message.Command() {
	case "start":
		r.send(cid, "Пришли скриншот тестового вопроса — верну вопрос, варианты и правильный ответ.\nКоманды: /health")
	case "health":
		if r.APIKey() == "" {
			r.send(cid, "⚠️ GEMINI_API_KEY is not set")
			return
		}
		r.send(cid, "✅ OK: gemini ("+r.Model+")")
	default:
		r.send(cid, "Неизвестная команда")
	}
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	if upd.Message.IsCommand() {
		r.HandleCommand(upd)
		return
	}
	if len(upd.Message.Photo) > 0 {
		r.acceptPhoto(ctx, *upd.Message)
		return
	}
	if upd.Message.Document != nil {
		r.acceptDocument(ctx, *upd.Message)
	}
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := r.Bot.Send(msg); err != nil {
		r.log.WithError(err).WithField("chat_id", chatID).Warn("telegram send failed")
	}
}

func (r *Router) SendError(chatID int64, err error) {
	r.send(chatID, fmt.Sprintf("Ошибка: %v", err))
}
