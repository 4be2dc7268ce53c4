package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImportRuns counts bulk upload runs by terminal outcome
	// (completed, invalid_document, header_mismatch).
	ImportRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_import_runs_total",
		Help: "Bulk catalog import runs by outcome",
	}, []string{"outcome"})

	// ImportRowsCreated counts products created by import runs.
	ImportRowsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_import_rows_created_total",
		Help: "Products created by bulk catalog imports",
	})

	// ImportRowsFailed counts per-row failures reported by import runs.
	ImportRowsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_import_rows_failed_total",
		Help: "Rows that failed during bulk catalog imports",
	})

	// ImageUploads counts files backend uploads by result (ok, error).
	ImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_image_uploads_total",
		Help: "Product image uploads to the files backend by result",
	}, []string{"result"})
)
