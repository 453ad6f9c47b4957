package handle

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"quiz-relay/api/internal/gemini"
)

type ExtractRequest struct {
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type,omitempty"`
}

// Extract отправляет скриншот вопроса в Gemini и отдаёт ответ без изменений.
func (h *Handle) Extract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	apiKey := h.apiKey()
	if apiKey == "" {
		h.log.Error("GEMINI_API_KEY is not set")
		writeError(w, http.StatusInternalServerError, "GEMINI_API_KEY is not set")
		return
	}

	// пустое или битое тело = пустой объект
	var req ExtractRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.ImageBase64 == "" {
		writeError(w, http.StatusBadRequest, "image_base64 is required")
		return
	}

	resp, err := h.gen.Generate(r.Context(), apiKey, gemini.NewRequest(req.ImageBase64, req.MimeType))
	if err != nil {
		h.log.WithError(err).Error("gemini request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.WithFields(logrus.Fields{
		"status": resp.Status,
		"bytes":  len(resp.Body),
	}).Debug("gemini responded")

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}
