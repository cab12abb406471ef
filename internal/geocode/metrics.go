package geocode

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "optimizer_geocode_lookups_total",
	Help: "Total geocoding lookups by outcome",
}, []string{"outcome"})
