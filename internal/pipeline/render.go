package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/couchcryptid/drainage-monitor/internal/domain"
)

const separator = "--------------------------------------"

// Renderer writes the operator-facing console report. Write errors are
// ignored; the log carries the same facts.
type Renderer struct {
	w io.Writer
}

// NewRenderer creates a Renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Render prints the raw reading, the overall verdict, the sensor-wise
// breakdown and the advice line.
func (r *Renderer) Render(report domain.CycleReport) {
	var b strings.Builder
	reading := report.Reading
	tier := report.Prediction.Tier

	b.WriteString("\n🌊 Drainage Prediction System 🌊\n")
	fmt.Fprintf(&b, "📡 Sensor Data (%s, %s)\n", report.Source, report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "🔹 Gas: %s ppm\n", formatValue(reading.Gas))
	fmt.Fprintf(&b, "🔹 GPS Location: %d\n", reading.GPSLocation)
	fmt.Fprintf(&b, "🔹 Water Level: %s cm\n", formatValue(reading.WaterLevel))
	fmt.Fprintf(&b, "🔹 Water Speed: %s m/s\n", formatValue(reading.WaterSpeed))
	b.WriteString(separator + "\n")

	b.WriteString("\n📢 Prediction Results 📢\n\n")
	fmt.Fprintf(&b, "🔹 Overall Drainage Condition: %s %s\n\n", tier.Badge(), tier)

	b.WriteString("📊 Sensor-wise Condition Report:\n")
	for _, s := range report.Sensors {
		fmt.Fprintf(&b, "🔹 %s: %s\n", s.Channel, s.Label)
	}

	fmt.Fprintf(&b, "\n%s %s\n", adviceMarker(tier), report.Prediction.Advice)
	io.WriteString(r.w, b.String()) //nolint:errcheck // console output is best effort
}

// RenderMissing reports a cycle with no telemetry in the store.
func (r *Renderer) RenderMissing() {
	io.WriteString(r.w, "\n🌊 Drainage Prediction System 🌊\nNo sensor data found!\n") //nolint:errcheck // console output is best effort
}

// RenderSkipped reports a cycle abandoned because of a bad or failed fetch.
func (r *Renderer) RenderSkipped(reason error) {
	fmt.Fprintf(r.w, "\n🌊 Drainage Prediction System 🌊\nSkipping cycle: %v\n", reason)
}

func adviceMarker(t domain.Tier) string {
	switch t {
	case domain.Stable:
		return "🟢"
	case domain.Caution:
		return "🟡"
	default:
		return "🔴"
	}
}

// formatValue prints readings the way operators enter them: 300, 0.5, 1.25.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
