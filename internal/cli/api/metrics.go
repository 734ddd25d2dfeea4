package api

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — счётчики клиента. Нулевой указатель допустим и ничего не считает.
type Metrics struct {
	requests     *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	queued       prometheus.Counter
	replays      prometheus.Counter
	forcedLogout prometheus.Counter
}

// NewMetrics регистрирует счётчики в reg. Если reg равен nil, используется
// собственный реестр.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dpcli",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API calls by final outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dpcli",
			Subsystem: "api",
			Name:      "token_refreshes_total",
			Help:      "Token refresh attempts by result.",
		}, []string{"result"}),
		queued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dpcli",
			Subsystem: "api",
			Name:      "refresh_queued_total",
			Help:      "Requests that waited for an in-flight refresh.",
		}),
		replays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dpcli",
			Subsystem: "api",
			Name:      "replays_total",
			Help:      "Requests replayed with a new access token.",
		}),
		forcedLogout: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dpcli",
			Subsystem: "api",
			Name:      "forced_logouts_total",
			Help:      "Sessions terminated because authentication expired.",
		}),
	}
	var err error
	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}
	if m.refreshes, err = register(reg, m.refreshes); err != nil {
		return nil, err
	}
	if m.queued, err = register(reg, m.queued); err != nil {
		return nil, err
	}
	if m.replays, err = register(reg, m.replays); err != nil {
		return nil, err
	}
	if m.forcedLogout, err = register(reg, m.forcedLogout); err != nil {
		return nil, err
	}
	return m, nil
}

// register возвращает уже зарегистрированный коллектор, если такой есть.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) incOutcome(err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(OutcomeOf(err).String()).Inc()
}

func (m *Metrics) incRefresh(ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) incQueued() {
	if m != nil {
		m.queued.Inc()
	}
}

func (m *Metrics) incReplay() {
	if m != nil {
		m.replays.Inc()
	}
}

func (m *Metrics) incForcedLogout() {
	if m != nil {
		m.forcedLogout.Inc()
	}
}
