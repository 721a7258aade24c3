package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"TrailZero/core"
)

// Error kinds used as the "kind" label of trailzero_errors_total
const (
	KindDocumentDecode  = "document_decode"
	KindTimestampFormat = "timestamp_format"
	KindEvent           = "event"
	KindSinkWrite       = "sink_write"
	KindOther           = "other"
)

var (
	initOnce sync.Once

	filesProcessedCounter   prometheus.Counter
	recordsEmittedCounter   prometheus.Counter
	errorsTotalCounter      *prometheus.CounterVec
	fileParseDurationMetric prometheus.Histogram
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		filesProcessedCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trailzero_files_processed_total",
				Help: "Total number of log files processed.",
			},
		)

		recordsEmittedCounter = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trailzero_records_emitted_total",
				Help: "Total number of records accepted by the output sink.",
			},
		)

		errorsTotalCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trailzero_errors_total",
				Help: "Total number of processing errors by kind.",
			},
			[]string{"kind"},
		)

		fileParseDurationMetric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trailzero_file_parse_duration_seconds",
				Help:    "Duration of reading, parsing and emitting one log file in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		)

		prometheus.MustRegister(
			filesProcessedCounter,
			recordsEmittedCounter,
			errorsTotalCounter,
			fileParseDurationMetric,
		)

		for _, kind := range []string{
			KindDocumentDecode,
			KindTimestampFormat,
			KindEvent,
			KindSinkWrite,
			KindOther,
		} {
			errorsTotalCounter.WithLabelValues(kind)
		}
	})
}

// ErrorKind classifies err by the core error taxonomy
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, core.ErrDocumentDecode):
		return KindDocumentDecode
	case errors.Is(err, core.ErrTimestampFormat):
		return KindTimestampFormat
	case errors.Is(err, core.ErrEvent):
		return KindEvent
	case errors.Is(err, core.ErrSinkWrite):
		return KindSinkWrite
	default:
		return KindOther
	}
}

func IncFilesProcessed() {
	Init()
	filesProcessedCounter.Inc()
}

func IncRecordsEmitted() {
	Init()
	recordsEmittedCounter.Inc()
}

func IncError(err error) {
	Init()
	errorsTotalCounter.WithLabelValues(ErrorKind(err)).Inc()
}

func ObserveFileParseDuration(d time.Duration) {
	Init()
	fileParseDurationMetric.Observe(d.Seconds())
}

// WriteTextfile writes all metrics of the default registry to filename in
// the text exposition format, for the node exporter textfile collector.
func WriteTextfile(filename string) error {
	Init()
	return prometheus.WriteToTextfile(filename, prometheus.DefaultGatherer)
}
