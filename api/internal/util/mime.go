package util

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// SniffMimeHTTP определяет MIME картинки по первым байтам; по умолчанию image/jpeg
// (Telegram отдаёт фото в JPEG).
func SniffMimeHTTP(b []byte) string {
	if len(b) == 0 {
		return "image/jpeg"
	}
	mime := http.DetectContentType(b)
	if strings.HasPrefix(mime, "image/") {
		return mime
	}
	return "image/jpeg"
}

// EncodeImage — base64 и MIME для inline_data.
func EncodeImage(b []byte) (b64, mime string) {
	return base64.StdEncoding.EncodeToString(b), SniffMimeHTTP(b)
}
