package telegram

import (
	"encoding/json"
	"fmt"
	"strings"

	"quiz-relay/api/internal/gemini"
	"quiz-relay/api/internal/util"
)

const maxMessage = 3900

// FormatReply достаёт текст первого кандидата; если не вышло — отдаёт тело как есть.
func FormatReply(resp *gemini.Response) string {
	body := strings.TrimSpace(string(resp.Body))
	if resp.Status < 200 || resp.Status > 299 {
		return util.Truncate(fmt.Sprintf("Ошибка Gemini %d: %s", resp.Status, body), maxMessage)
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(resp.Body, &out); err == nil &&
		len(out.Candidates) > 0 && len(out.Candidates[0].Content.Parts) > 0 {
		if t := util.StripCodeFences(out.Candidates[0].Content.Parts[0].Text); t != "" {
			body = t
		}
	}
	if body == "" {
		body = "(пусто)"
	}
	return util.Truncate("📝 "+body, maxMessage)
}
