package logger

import (
	"github.com/maxaizer/jobboard-bot/internal/metrics"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const errorTypeUnknown = "unknown"

var errorTypes = []string{ErrorTypeJobsApi, ErrorTypeTgApi}

type prometheusHook struct{}

func (h *prometheusHook) Fire(entry *log.Entry) error {
	// the label set stays bounded to the known error types
	errorType, ok := entry.Data[ErrorTypeField].(string)
	if !ok || !lo.Contains(errorTypes, errorType) {
		errorType = errorTypeUnknown
	}

	metrics.ErrorsCounter.WithLabelValues(errorType).Inc()
	return nil
}

func (h *prometheusHook) Levels() []log.Level {
	return []log.Level{
		log.ErrorLevel,
		log.FatalLevel,
		log.PanicLevel,
	}
}

func addPrometheusHook() {
	log.AddHook(&prometheusHook{})
	log.Debug("prometheus error hook enabled")
}
