package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/drainage-monitor/internal/domain"
	"github.com/couchcryptid/drainage-monitor/internal/observability"
	"github.com/jonboulle/clockwork"
)

// TelemetryGateway fetches the latest reading set from the telemetry store.
// It returns domain.ErrNoTelemetry when the store holds nothing.
type TelemetryGateway interface {
	FetchLatest(ctx context.Context) (domain.RawReading, error)
}

// ReportSink receives every completed cycle report.
type ReportSink interface {
	Publish(ctx context.Context, report domain.CycleReport) error
}

// State is the poller's position in its two-state machine.
type State int32

const (
	Idle State = iota
	Processing
)

func (s State) String() string {
	if s == Processing {
		return "processing"
	}
	return "idle"
}

// Settings tunes the loop timing. A nil Clock means the real clock.
type Settings struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	Clock        clockwork.Clock
}

// Poller runs fetch → classify → render → wait forever, one cycle at a time.
type Poller struct {
	gateway   TelemetryGateway
	predictor domain.Predictor
	renderer  *Renderer
	sink      ReportSink
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	interval  time.Duration
	timeout   time.Duration

	state  atomic.Int32
	ready  atomic.Bool
	latest atomic.Pointer[domain.CycleReport]
}

// New creates a Poller. sink may be nil when reports are only rendered.
func New(gateway TelemetryGateway, predictor domain.Predictor, renderer *Renderer, sink ReportSink, logger *slog.Logger, metrics *observability.Metrics, settings Settings) *Poller {
	clock := settings.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Poller{
		gateway:   gateway,
		predictor: predictor,
		renderer:  renderer,
		sink:      sink,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
		interval:  settings.Interval,
		timeout:   settings.FetchTimeout,
	}
}

// CheckReadiness returns nil once a cycle has produced a report.
func (p *Poller) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no drainage report produced yet")
	}
	return nil
}

// State reports whether a cycle is in progress.
func (p *Poller) State() State {
	return State(p.state.Load())
}

// LatestReport returns the most recent cycle report, if any.
func (p *Poller) LatestReport() (domain.CycleReport, bool) {
	r := p.latest.Load()
	if r == nil {
		return domain.CycleReport{}, false
	}
	return *r, true
}

// Run executes cycles until the context is cancelled. It returns an error
// only when classification is impossible, which is fatal to the process.
func (p *Poller) Run(ctx context.Context) error {
	if p.predictor == nil {
		return domain.ErrModelNotReady
	}

	p.logger.Info("poller started", "interval", p.interval, "fetch_timeout", p.timeout)
	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	for {
		if ctx.Err() != nil {
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		}

		if _, err := p.RunCycle(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		case <-p.clock.After(p.interval):
		}
	}
}

// RunCycle performs one fetch-classify-render pass and reports its outcome.
// Missing, malformed or unreachable telemetry skips the cycle without error.
func (p *Poller) RunCycle(ctx context.Context) (string, error) {
	start := p.clock.Now()
	p.setState(Processing)
	defer p.setState(Idle)

	outcome, err := p.cycle(ctx)
	if err != nil {
		return "", err
	}

	p.metrics.Cycles.WithLabelValues(outcome).Inc()
	p.metrics.CycleDuration.Observe(p.clock.Since(start).Seconds())
	return outcome, nil
}

func (p *Poller) cycle(ctx context.Context) (string, error) {
	raw, err := p.fetch(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoTelemetry) {
			p.logger.Warn("no sensor data found, skipping cycle")
			p.renderer.RenderMissing()
			return observability.OutcomeNoData, nil
		}
		p.logger.Error("fetch latest reading failed, skipping cycle", "error", err)
		p.renderer.RenderSkipped(err)
		return observability.OutcomeFailed, nil
	}

	reading, err := domain.ParseReading(raw)
	if err != nil {
		p.logger.Warn("malformed reading, skipping cycle", "error", err, "source", raw.Source)
		p.renderer.RenderSkipped(err)
		return observability.OutcomeMalformed, nil
	}

	assessment, err := domain.Assess(reading, p.predictor)
	if err != nil {
		return "", fmt.Errorf("classify reading: %w", err)
	}

	report := domain.NewCycleReport(assessment, raw.Source)
	p.renderer.Render(report)
	p.latest.Store(&report)
	p.ready.Store(true)
	p.record(report)

	p.logger.Info("cycle reported",
		"report_id", report.ID,
		"tier", report.Prediction.Tier.String(),
		"gas", reading.Gas,
		"water_speed", reading.WaterSpeed,
		"water_level", reading.WaterLevel,
		"gps_location", reading.GPSLocation,
	)

	p.publish(ctx, report)
	return observability.OutcomeReported, nil
}

func (p *Poller) fetch(ctx context.Context) (domain.RawReading, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := p.clock.Now()
	raw, err := p.gateway.FetchLatest(ctx)
	p.metrics.FetchDuration.Observe(p.clock.Since(start).Seconds())
	return raw, err
}

func (p *Poller) publish(ctx context.Context, report domain.CycleReport) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Publish(ctx, report); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Warn("publish report failed", "error", err, "report_id", report.ID)
		return
	}
	p.metrics.ReportsPublished.Inc()
}

func (p *Poller) record(report domain.CycleReport) {
	tier := report.Prediction.Tier
	p.metrics.Predictions.WithLabelValues(tier.String()).Inc()
	p.metrics.OverallTier.Set(float64(tier))
	for _, s := range report.Sensors {
		p.metrics.ChannelTier.WithLabelValues(string(s.Channel)).Set(float64(s.Tier))
	}

	r := report.Reading
	p.metrics.ReadingValue.WithLabelValues(domain.FieldGas).Set(r.Gas)
	p.metrics.ReadingValue.WithLabelValues(domain.FieldWaterSpeed).Set(r.WaterSpeed)
	p.metrics.ReadingValue.WithLabelValues(domain.FieldWaterLevel).Set(r.WaterLevel)
	p.metrics.ReadingValue.WithLabelValues(domain.FieldGPSLocation).Set(float64(r.GPSLocation))
}

func (p *Poller) setState(s State) {
	p.state.Store(int32(s))
	p.metrics.PollerState.Set(float64(s))
}
