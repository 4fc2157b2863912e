package respond

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
)

const maxBodySize = 1 << 20

var ErrEmptyBody = errors.New("empty request body")

func JSON(w http.ResponseWriter, r *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = sonic.ConfigStd.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	JSON(w, r, code, map[string]string{"error": message})
}

// Message - ответ вида {"message": "..."} для операций без тела (удаление)
func Message(w http.ResponseWriter, r *http.Request, code int, message string) {
	JSON(w, r, code, map[string]string{"message": message})
}

// Decode читает тело запроса в v. Пустое тело -> ErrEmptyBody.
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ErrEmptyBody
	}
	if err := sonic.ConfigStd.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}
