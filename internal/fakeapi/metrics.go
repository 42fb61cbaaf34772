package fakeapi

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	logins       *prometheus.CounterVec
	refreshes    *prometheus.CounterVec
	postsCreated prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "socialblog",
			Subsystem: "devapi",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "socialblog",
			Subsystem: "devapi",
			Name:      "refreshes_total",
			Help:      "Refresh attempts by outcome.",
		}, []string{"outcome"}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "socialblog",
			Subsystem: "devapi",
			Name:      "posts_created_total",
			Help:      "Posts created.",
		}),
	}
	reg.MustRegister(m.logins, m.refreshes, m.postsCreated)
	return m
}
