package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type preferenceMetrics struct {
	resolutions *prometheus.CounterVec
	updates     *prometheus.CounterVec
}

func newPreferenceMetrics(reg prometheus.Registerer, namespace string) *preferenceMetrics {
	if namespace == "" {
		namespace = "xpref"
	}
	factory := promauto.With(reg)
	return &preferenceMetrics{
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preference_resolutions_total",
			Help:      "Resolved preferences by winning source.",
		}, []string{"source"}),
		updates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "preference_updates_total",
			Help:      "Preference update attempts by result.",
		}, []string{"result"}),
	}
}

func (m *preferenceMetrics) resolved(source string) {
	m.resolutions.WithLabelValues(source).Inc()
}

func (m *preferenceMetrics) updated(result string) {
	m.updates.WithLabelValues(result).Inc()
}
