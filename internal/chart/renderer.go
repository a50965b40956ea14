// Package chart renders reading sequences as PNG line charts.
package chart

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/energytrack-io/energytrack/internal/domain"
	gochart "github.com/wcharczuk/go-chart/v2"
)

// ErrNoData is returned when there are no readings to plot. Callers are
// expected to reject empty input before reaching the renderer; this is the
// backstop.
var ErrNoData = errors.New("no data to render")

const (
	// FileName is the fixed name of the generated chart image. Each
	// successful render overwrites it; last render wins.
	FileName = "usage_plot.png"

	// URLPrefix is the URL path under which the static directory is served.
	URLPrefix = "static"

	timeFormat = "2006-01-02 15:04"
)

// Renderer writes usage line charts into a static directory.
type Renderer struct {
	dir    string
	width  int
	height int
}

// NewRenderer returns a renderer writing into dir, which the HTTP server is
// expected to expose as /static/.
func NewRenderer(dir string, width, height int) *Renderer {
	if width <= 0 {
		width = 1000
	}
	if height <= 0 {
		height = 600
	}
	return &Renderer{dir: dir, width: width, height: height}
}

// Render plots the readings and atomically replaces the chart file. It
// returns the URL-relative path of the image on success. No partial file is
// left behind on failure.
func (r *Renderer) Render(readings []domain.Reading) (string, error) {
	if len(readings) == 0 {
		return "", ErrNoData
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create static dir: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, FileName+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp chart file: %w", err)
	}

	if err := r.RenderTo(tmp, readings); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp chart file: %w", err)
	}

	target := filepath.Join(r.dir, FileName)
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("replace chart file: %w", err)
	}

	return path.Join(URLPrefix, FileName), nil
}

// RenderTo plots the readings as a PNG line chart to w. The input must be
// ordered ascending by time.
func (r *Renderer) RenderTo(w io.Writer, readings []domain.Reading) error {
	if len(readings) == 0 {
		return ErrNoData
	}

	times := make([]time.Time, 0, len(readings)+1)
	values := make([]float64, 0, len(readings)+1)
	for _, rd := range readings {
		times = append(times, rd.Time)
		values = append(values, rd.Usage)
	}

	// go-chart needs at least two x values; pad a lone reading.
	if len(times) == 1 {
		times = append(times, times[0].Add(time.Minute))
		values = append(values, values[0])
	}

	graph := gochart.Chart{
		Title:  "Energy Usage Over Time",
		Width:  r.width,
		Height: r.height,
		XAxis: gochart.XAxis{
			Name:           "Timestamp",
			ValueFormatter: gochart.TimeValueFormatterWithFormat(timeFormat),
			TickStyle: gochart.Style{
				TextRotationDegrees: 45.0,
			},
		},
		YAxis: gochart.YAxis{
			Name: "Energy Usage (kWh)",
		},
		Series: []gochart.Series{
			gochart.TimeSeries{
				Name:    "usage",
				XValues: times,
				YValues: values,
				Style: gochart.Style{
					StrokeWidth: 2.0,
					DotWidth:    3.0,
				},
			},
		},
	}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
