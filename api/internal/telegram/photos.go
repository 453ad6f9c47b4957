package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"quiz-relay/api/internal/gemini"
	"quiz-relay/api/internal/util"
)

const maxDownload = 20 << 20

func (r *Router) acceptPhoto(ctx context.Context, msg tgbotapi.Message) {
	ph := msg.Photo[len(msg.Photo)-1]
	r.relayFile(ctx, msg.Chat.ID, ph.FileID, "")
}

func (r *Router) acceptDocument(ctx context.Context, msg tgbotapi.Message) {
	doc := msg.Document
	if !strings.HasPrefix(doc.MimeType, "image/") {
		r.send(msg.Chat.ID, "Нужна картинка (скриншот вопроса).")
		return
	}
	r.relayFile(ctx, msg.Chat.ID, doc.FileID, doc.MimeType)
}

func (r *Router) relayFile(ctx context.Context, cid int64, fileID, mime string) {
	apiKey := r.APIKey()
	if apiKey == "" {
		r.send(cid, "GEMINI_API_KEY is not set")
		return
	}

	r.send(cid, "Принял скриншот, обрабатываю…")
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	img, err := download(ctx, url)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	b64, sniffed := util.EncodeImage(img)
	if mime == "" {
		mime = sniffed
	}

	in := gemini.NewRequest(b64, mime)
	resp, err := r.Gemini.Generate(ctx, apiKey, in)
	if err != nil {
		r.log.WithError(err).WithField("chat_id", cid).Error("gemini request failed")
		r.SendError(cid, err)
		return
	}
	r.send(cid, FormatReply(resp))
}

func download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownload))
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
