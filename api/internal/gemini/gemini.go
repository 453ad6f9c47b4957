package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"
	DefaultMimeType = "image/png"
)

const prompt = `
Ты получишь скриншот тестового вопроса на русском языке.
Нужно извлечь:
1) вопрос
2) список вариантов ответов
3) правильный ответ (по строке "Правильный ответ: ...", если есть)

Ответ верни строго в JSON без пояснений:
{"question":"...","options":["...","..."],"correct_answer":"..."}
`

// BuildPrompt возвращает фиксированную инструкцию для модели.
func BuildPrompt() string {
	return strings.TrimSpace(prompt)
}

type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type Part struct {
	InlineData *InlineData `json:"inline_data,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

type Request struct {
	Contents []Content `json:"contents"`
}

// NewRequest собирает тело generateContent: картинка, затем промпт.
// imageB64 уходит как есть, без декодирования.
func NewRequest(imageB64, mimeType string) Request {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return Request{
		Contents: []Content{
			{
				Parts: []Part{
					{InlineData: &InlineData{MimeType: mimeType, Data: imageB64}},
					{Text: BuildPrompt()},
				},
			},
		},
	}
}

// Response — сырой ответ Gemini. Тело не разбирается.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

type Client struct {
	Endpoint string
	httpc    *http.Client
}

func New(endpoint string, timeout time.Duration) *Client {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		Endpoint: endpoint,
		httpc:    &http.Client{Timeout: timeout},
	}
}

// Generate отправляет один POST и возвращает статус и тело как есть.
// Ответ не-2xx ошибкой не считается.
func (c *Client) Generate(ctx context.Context, apiKey string, in Request) (*Response, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gemini response: %w", err)
	}
	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
