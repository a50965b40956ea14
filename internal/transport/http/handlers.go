package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/energytrack-io/energytrack/internal/domain"
	"github.com/energytrack-io/energytrack/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Response messages are part of the wire contract; the page script displays
// them verbatim.
const (
	msgSubmitOK     = "Data added successfully!"
	msgInvalidInput = "Invalid input! Please enter a numeric value."
	msgRecordFailed = "Failed to record reading."
	msgNoData       = "No data available for visualization."
	msgRenderFailed = "Failed to generate visualization."
)

// ReadingService is the small subset of the service we need, to keep tests simple.
type ReadingService interface {
	Record(ctx context.Context, usage float64) (domain.Reading, error)
	Recent(ctx context.Context, days int) ([]domain.Reading, error)
}

// ChartRenderer renders an ordered, non-empty reading sequence to the chart
// file and returns its URL-relative path.
type ChartRenderer interface {
	Render(readings []domain.Reading) (string, error)
}

type Server struct {
	svc       ReadingService
	renderer  ChartRenderer
	staticDir string
	mux       *http.ServeMux
}

func New(svc ReadingService, renderer ChartRenderer, staticDir string) *Server {
	s := &Server{
		svc:       svc,
		renderer:  renderer,
		staticDir: staticDir,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := newRequestID()

	w.Header().Set("X-Request-Id", reqID)
	rr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() {
		if rec := recover(); rec != nil {
			rr.status = http.StatusInternalServerError

			// Best-effort response. If headers/body were already written, we can
			// only log.
			if !rr.wroteHeader {
				if isJSONPath(r.URL.Path) {
					writeStatusError(rr, http.StatusInternalServerError, "internal error")
				} else {
					http.Error(rr, "internal error", http.StatusInternalServerError)
				}
			}

			log.Printf("panic handling %s %s req_id=%s: %v\n%s",
				r.Method, r.URL.Path, reqID, rec, debug.Stack(),
			)
		}

		dur := time.Since(start)
		observeHTTPRequest(r, rr.status, dur)

		// Keep health checks, metrics, and static assets quiet.
		if r.URL.Path != "/healthz" && r.URL.Path != "/metrics" && !strings.HasPrefix(r.URL.Path, "/static/") {
			log.Printf("%s %s -> %d (%s) req_id=%s",
				r.Method, r.URL.Path, rr.status, dur.Truncate(time.Millisecond), reqID,
			)
		}
	}()

	s.mux.ServeHTTP(rr, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/submit", s.handleSubmit)
	s.mux.HandleFunc("/visualize", s.handleVisualize)
	s.mux.HandleFunc("/api/readings", s.handleListReadings)
	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))
	s.mux.HandleFunc("/", s.handleIndex)
}

// handleSubmit accepts a form-encoded numeric `usage` field and stores one
// reading stamped with the current server time.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeStatusError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := r.ParseForm(); err != nil {
		writeStatusError(w, http.StatusBadRequest, msgInvalidInput)
		return
	}
	usage, err := strconv.ParseFloat(strings.TrimSpace(r.PostFormValue("usage")), 64)
	if err != nil || math.IsNaN(usage) || math.IsInf(usage, 0) {
		writeStatusError(w, http.StatusBadRequest, msgInvalidInput)
		return
	}

	reading, err := s.svc.Record(r.Context(), usage)
	if err != nil {
		if errors.Is(err, service.ErrInvalidUsage) {
			writeStatusError(w, http.StatusBadRequest, msgInvalidInput)
			return
		}
		// Storage faults are reported once and never retried.
		log.Printf("record reading failed: %v", err)
		writeStatusError(w, http.StatusInternalServerError, msgRecordFailed)
		return
	}
	readingsRecordedTotal.Inc()

	log.Printf("recorded reading id=%d usage=%v", reading.ID, reading.Usage)
	_ = writeJSON(w, http.StatusOK, statusJSON{
		Status:  "success",
		Message: msgSubmitOK,
	})
}

// handleVisualize renders the trailing default window as a line chart and
// returns the image path.
func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeStatusError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	readings, err := s.svc.Recent(r.Context(), 0)
	if err != nil {
		// Query faults degrade to "no data" rather than failing the request
		// differently; the chart cannot be drawn either way.
		log.Printf("fetch recent readings failed: %v", err)
		readings = nil
	}
	if len(readings) == 0 {
		writeStatusError(w, http.StatusBadRequest, msgNoData)
		return
	}

	renderStart := time.Now()
	imagePath, err := s.renderer.Render(readings)
	if err != nil {
		observeChartRender("error", time.Since(renderStart))
		log.Printf("render chart failed: %v", err)
		writeStatusError(w, http.StatusInternalServerError, msgRenderFailed)
		return
	}
	observeChartRender("success", time.Since(renderStart))

	_ = writeJSON(w, http.StatusOK, statusJSON{
		Status:    "success",
		ImagePath: imagePath,
	})
}

// handleListReadings returns the readings of the trailing window as JSON.
// Query param `days` overrides the default window.
func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeStatusError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	days, err := parseOptionalInt(r.URL.Query().Get("days"))
	if err != nil || days < 0 {
		writeStatusError(w, http.StatusBadRequest, "invalid days")
		return
	}

	readings, err := s.svc.Recent(r.Context(), days)
	if err != nil {
		if errors.Is(err, service.ErrInvalidWindow) {
			writeStatusError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("list readings failed: %v", err)
		writeStatusError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]readingJSON, 0, len(readings))
	for _, rd := range readings {
		out = append(out, readingJSON{
			ID:    rd.ID,
			Time:  formatTime(rd.Time),
			Usage: rd.Usage,
		})
	}
	_ = writeJSON(w, http.StatusOK, listReadingsResponseJSON{Readings: out})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		// Keep API errors JSON.
		if isJSONPath(r.URL.Path) {
			writeStatusError(w, http.StatusNotFound, "not found")
			return
		}
		http.NotFound(w, r) // HTML/plain-text is fine for non-API paths.
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

// isJSONPath reports whether errors on the path should be JSON bodies.
func isJSONPath(path string) bool {
	return path == "/submit" || path == "/visualize" || strings.HasPrefix(path, "/api")
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(p)
}

func newRequestID() string {
	var b [6]byte // 12 hex chars
	if _, err := rand.Read(b[:]); err != nil {
		return "000000000000"
	}
	return hex.EncodeToString(b[:])
}

func parseOptionalInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return n, nil
}
