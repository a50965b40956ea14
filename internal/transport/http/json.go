package httpserver

import (
	"encoding/json"
	"net/http"
	"time"
)

// statusJSON is the envelope returned by /submit and /visualize.
type statusJSON struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	ImagePath string `json:"image_path,omitempty"`
}

type readingJSON struct {
	ID    int64   `json:"id"`
	Time  string  `json:"time"`
	Usage float64 `json:"usage"`
}

type listReadingsResponseJSON struct {
	Readings []readingJSON `json:"readings"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeStatusError(w http.ResponseWriter, status int, message string) {
	_ = writeJSON(w, status, statusJSON{
		Status:  "error",
		Message: message,
	})
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
