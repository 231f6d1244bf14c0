package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Timer state values reported by TimerState.
const (
	StateStopped = 0
	StateRunning = 1
	StatePaused  = 2
)

var (
	// Session metrics
	SessionsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "focuswatch_sessions_recorded_total",
			Help: "Total focus sessions recorded into the stats ledger",
		},
	)

	SessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "focuswatch_session_duration_seconds",
			Help:    "Duration of recorded focus sessions in seconds",
			Buckets: []float64{60, 300, 600, 900, 1500, 1800, 2700, 3600, 5400, 7200, 14400},
		},
	)

	FocusSeconds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "focuswatch_focus_seconds_total",
			Help: "Total focus time recorded in seconds",
		},
	)

	// Timer metrics
	TimerElapsed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "focuswatch_timer_elapsed_seconds",
			Help: "Elapsed time of the current session in seconds",
		},
	)

	TimerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "focuswatch_timer_state",
			Help: "Timer state (0 stopped, 1 running, 2 paused)",
		},
	)

	Ticks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "focuswatch_ticks_total",
			Help: "Total timer ticks processed",
		},
	)

	// Storage metrics
	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "focuswatch_store_errors_total",
			Help: "Settings store failures by operation",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsRecorded,
		SessionDuration,
		FocusSeconds,
		TimerElapsed,
		TimerState,
		Ticks,
		StoreErrors,
	)
}

// RecordSession observes a session pushed into the ledger.
func RecordSession(seconds float64) {
	SessionsRecorded.Inc()
	SessionDuration.Observe(seconds)
	FocusSeconds.Add(seconds)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Handler returns the server's mux.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
