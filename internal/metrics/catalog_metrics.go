package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CatalogWrites counts catalog documents committed to the content host.
	CatalogWrites = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_writes_total",
		Help: "The total number of catalog documents committed",
	})

	// CatalogWriteRejections counts refused catalog writes by reason.
	CatalogWriteRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_write_rejections_total",
		Help: "The total number of refused catalog writes",
	}, []string{"reason"})

	// CatalogReads counts catalog reads by outcome.
	CatalogReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_reads_total",
		Help: "The total number of catalog reads",
	}, []string{"outcome"})

	// MetadataLookups counts product page lookups by outcome.
	MetadataLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "metadata_lookups_total",
		Help: "The total number of product page metadata lookups",
	}, []string{"outcome"})

	// NotificationsPublished counts catalog change notifications by outcome.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_notifications_total",
		Help: "The total number of catalog change notifications",
	}, []string{"outcome"})
)

// Rejection reasons and outcomes used as label values.
const (
	ReasonUnauthorized  = "unauthorized"
	ReasonNotConfigured = "not_configured"
	ReasonInvalid       = "invalid"
	ReasonHost          = "host"

	OutcomeOK    = "ok"
	OutcomeError = "error"
)
