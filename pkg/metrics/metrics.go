package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/srodi/appwatch/pkg/types"
)

// Registry holds every appwatch collector; the /metrics handler serves only it.
var Registry = prometheus.NewRegistry()

var (
	// Per-application usage, mirrored from the last saved table
	AppSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "appwatch_app_time_spent_seconds",
			Help: "Sampled seconds each application held the foreground",
		},
		[]string{"app"},
	)

	AppRAMBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "appwatch_app_ram_usage_bytes",
			Help: "Accumulated RSS samples per application",
		},
		[]string{"app"},
	)

	AppDiskBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "appwatch_app_disk_usage_bytes",
			Help: "Accumulated disk I/O samples per application",
		},
		[]string{"app"},
	)

	TotalSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "appwatch_total_system_usage_seconds",
			Help: "Ticks attributed to any application",
		},
	)

	// Loop health
	SavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "appwatch_saves_total",
			Help: "Save attempts by result",
		},
		[]string{"result"},
	)

	TicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "appwatch_ticks_total",
			Help: "Sampling ticks processed",
		},
	)
)

func init() {
	Registry.MustRegister(
		AppSeconds,
		AppRAMBytes,
		AppDiskBytes,
		TotalSeconds,
		SavesTotal,
		TicksTotal,
	)
}

// Update replaces the per-application gauges with the contents of table.
func Update(table types.UsageTable) {
	AppSeconds.Reset()
	AppRAMBytes.Reset()
	AppDiskBytes.Reset()
	for name, rec := range table.Apps {
		if name == types.TotalKey {
			continue
		}
		AppSeconds.WithLabelValues(name).Set(float64(rec.TimeSpent))
		AppRAMBytes.WithLabelValues(name).Set(float64(rec.RAMUsage))
		AppDiskBytes.WithLabelValues(name).Set(float64(rec.DiskUsage))
	}
	TotalSeconds.Set(float64(table.TotalSystemUsage))
}

// ObserveSave counts a save attempt.
func ObserveSave(err error) {
	if err != nil {
		SavesTotal.WithLabelValues("error").Inc()
		return
	}
	SavesTotal.WithLabelValues("ok").Inc()
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: Handler(),
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Handler serves /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	if s.listener == nil {
		ln, err := net.Listen("tcp", s.server.Addr)
		if err != nil {
			return err
		}
		s.listener = ln
	}
	s.logger.Info().Str("addr", s.listener.Addr().String()).Msg("Starting metrics server")
	go func() {
		if err := s.server.Serve(s.listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
