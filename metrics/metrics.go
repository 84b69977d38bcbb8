package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Lorenzo-Protocol/lorenzo-ics20-submitter/txsubmit"
)

const namespace = "ics20_submitter"

const (
	OutcomeSuccess         = "success"
	OutcomeChainError      = "chain_error"
	OutcomeBroadcastFailed = "broadcast_failed"
	OutcomeCommitTimeout   = "commit_timeout"
	OutcomeFeeEstimation   = "fee_estimation_failed"
	OutcomeNetworkError    = "network_error"
	OutcomeOther           = "other"
)

type Metrics struct {
	Submissions     *prometheus.CounterVec
	CommitWait      prometheus.Histogram
	SequenceResets  prometheus.Counter
	PendingRequests prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Number of submitted transactions by outcome",
		}, []string{"outcome"}),
		CommitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commit_wait_seconds",
			Help:      "Time from broadcast until the tx was seen in a block",
			Buckets:   []float64{0.5, 1, 2, 4, 6, 10, 20, 30, 60},
		}),
		SequenceResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sequence_resets_total",
			Help:      "Number of times a cached account sequence was dropped",
		}),
		PendingRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_requests",
			Help:      "Transfer requests picked up in the last round",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Submissions, m.CommitWait, m.SequenceResets, m.PendingRequests)
	}

	return m
}

// ObserveSubmission counts one submission attempt. err is the error of the
// submission, or the classified outcome error when it committed.
func (m *Metrics) ObserveSubmission(err error, wait time.Duration) {
	outcome := Outcome(err)
	m.Submissions.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomeChainError {
		m.CommitWait.Observe(wait.Seconds())
	}
}

// Outcome maps a submission error to its metric label.
func Outcome(err error) string {
	var (
		chainErr *txsubmit.ChainError
		netErr   *txsubmit.NetworkError
	)

	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &chainErr):
		return OutcomeChainError
	case errors.Is(err, txsubmit.ErrBroadcastFailed):
		return OutcomeBroadcastFailed
	case errors.Is(err, txsubmit.ErrCommitTimeout):
		return OutcomeCommitTimeout
	case errors.Is(err, txsubmit.ErrFeeEstimationFailed):
		return OutcomeFeeEstimation
	case errors.As(err, &netErr):
		return OutcomeNetworkError
	default:
		return OutcomeOther
	}
}

// Server exposes the registry over http until Stop is called.
type Server struct {
	srv    *http.Server
	logger *zap.SugaredLogger
}

func NewServer(addr string, gatherer prometheus.Gatherer, logger *zap.SugaredLogger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.Named("metrics"),
	}
}

func (s *Server) Start() {
	go func() {
		s.logger.Infof("serving metrics on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("metrics server stopped: %v", err)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
