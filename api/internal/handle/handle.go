package handle

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"quiz-relay/api/internal/gemini"
	"quiz-relay/api/internal/logging"
)

// Generator — всё, что хендлеру нужно от клиента Gemini.
type Generator interface {
	Generate(ctx context.Context, apiKey string, in gemini.Request) (*gemini.Response, error)
}

type Handle struct {
	gen    Generator
	apiKey func() string
	log    *logrus.Logger
}

// New принимает функцию чтения ключа: ключ читается на каждый запрос.
func New(gen Generator, apiKey func() string) *Handle {
	return &Handle{
		gen:    gen,
		apiKey: apiKey,
		log:    logging.GetLogger(),
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
