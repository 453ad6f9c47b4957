package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"quiz-relay/api/internal/config"
	"quiz-relay/api/internal/gemini"
	"quiz-relay/api/internal/handle"
	"quiz-relay/api/internal/httpserver"
	"quiz-relay/api/internal/logging"
	"quiz-relay/api/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.InitLogger(logging.ParseLevel(cfg.LogLevel))

	bot, err := tgbotapi.NewBotAPI(cfg.MustTelegramToken())
	if err != nil {
		log.Fatal(err)
	}
	bot.Debug = false

	client := gemini.New(cfg.GeminiEndpoint, cfg.GeminiTimeout)
	r := telegram.NewRouter(bot, client, config.GeminiAPIKey, cfg.GeminiModel)

	// relay доступен и рядом с ботом, на том же порту
	h := handle.New(client, config.GeminiAPIKey)
	mux := httpserver.NewMux(cfg.RelayPath, h.Extract)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	addr := "0.0.0.0:" + cfg.Port
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		path := "/webhook/" + shortHash(bot.Token)
		public := strings.TrimRight(webhookURL, "/") + path

		wh, err := tgbotapi.NewWebhook(public)
		if err != nil {
			log.Fatal(err)
		}
		wh.DropPendingUpdates = true
		if _, err := bot.Request(wh); err != nil {
			log.Fatal(err)
		}

		updates := make(chan tgbotapi.Update, bot.Buffer)
		mux.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
			upd, err := bot.HandleUpdate(req)
			if err != nil {
				log.WithError(err).Warn("bad webhook update")
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			updates <- *upd
		})
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case upd := <-updates:
					r.HandleUpdate(gctx, upd)
				}
			}
		})
		log.Infof("webhook listening on %s%s", addr, path)
	} else {
		g.Go(func() error {
			runPolling(gctx, bot, func(upd tgbotapi.Update) { r.HandleUpdate(gctx, upd) })
			return nil
		})
	}

	g.Go(func() error {
		return httpserver.Run(gctx, addr, httpserver.WithRequestID(mux))
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("bot: %v", err)
	}
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update)) {
	log := logging.GetLogger()
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			log.Info("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := min(max(retryDelayFromError(err), baseDelay), maxDelay)
			log.Warnf("polling error: %v; retry in %v", err, d)
			select {
			case <-ctx.Done():
				return
			case <-time.After(d):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			time.Sleep(200 * time.Millisecond)
		}
	}
}

// shortHash — FNV-1a в 16 hex-символов для секретного пути вебхука.
func shortHash(s string) string {
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
