package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// DomainMetrics counts account events.
type DomainMetrics struct {
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	elevations    *prometheus.CounterVec
}

// NewDomainMetrics registers the account counters on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	registrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Account registrations by outcome.",
	}, []string{"outcome"})
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})
	elevations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_elevations_total",
		Help:      "Admin role elevations by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(registrations, logins, elevations)
	return &DomainMetrics{
		registrations: registrations,
		logins:        logins,
		elevations:    elevations,
	}
}

func (d *DomainMetrics) Registration(err error) {
	if d == nil {
		return
	}
	inc(d.registrations, err)
}

func (d *DomainMetrics) Login(err error) {
	if d == nil {
		return
	}
	inc(d.logins, err)
}

func (d *DomainMetrics) Elevation(err error) {
	if d == nil {
		return
	}
	inc(d.elevations, err)
}

func inc(vec *prometheus.CounterVec, err error) {
	if vec == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	vec.WithLabelValues(outcome).Inc()
}
