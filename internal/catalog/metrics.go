package catalog

import "github.com/prometheus/client_golang/prometheus"

type StoreMetrics struct {
	Products        prometheus.Gauge
	PersistFailures *prometheus.CounterVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		Products: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Products currently held by the catalog store",
		}),
		PersistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_persist_failures_total",
				Help: "Failed loads and saves of the catalog backing file",
			},
			[]string{"op"},
		),
	}

	reg.MustRegister(m.Products, m.PersistFailures)
	return m
}

func (m *StoreMetrics) setProducts(n int) {
	if m == nil {
		return
	}
	m.Products.Set(float64(n))
}

func (m *StoreMetrics) persistFailed(op string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(op).Inc()
}
