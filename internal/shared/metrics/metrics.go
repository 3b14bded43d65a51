package metrics

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	assessmentStarted   = newCounter("assessment_started_total", "Total assessments started")
	assessmentCompleted = newCounter("assessment_completed_total", "Total assessments completed")
	assessmentVariant   = newLabeledCounter("assessment_variant_total", "Assessments started per variant", "variant")
	assessmentFailed    = newLabeledCounter("assessment_failed_total", "Assessments failed per reason", "reason")

	assessmentDuration = newHistogram("assessment_duration_ms", "Assessment duration in milliseconds",
		[]float64{250, 500, 1000, 2000, 5000, 10000, 20000, 30000, 60000})
	conversionDuration = newHistogram("conversion_duration_ms", "PDF conversion duration in milliseconds",
		[]float64{50, 100, 250, 500, 1000, 2000, 5000})

	// registry is the exposition order.
	registry = []collector{
		assessmentStarted,
		assessmentCompleted,
		assessmentVariant,
		assessmentFailed,
		assessmentDuration,
		conversionDuration,
	}
)

// IncAssessmentStarted counts an accepted assessment request for the variant.
func IncAssessmentStarted(variant string) {
	assessmentStarted.Inc()
	assessmentVariant.Inc(variant)
}

// IncAssessmentCompleted increments the completed counter.
func IncAssessmentCompleted() {
	assessmentCompleted.Inc()
}

// IncAssessmentFailed counts a failed assessment by reason.
func IncAssessmentFailed(reason string) {
	assessmentFailed.Inc(reason)
}

// ObserveAssessmentDurationMs records an end-to-end duration in milliseconds.
func ObserveAssessmentDurationMs(value float64) {
	assessmentDuration.Observe(max(value, 0))
}

// ObserveConversionDurationMs records how long PDF conversion took.
func ObserveConversionDurationMs(value float64) {
	conversionDuration.Observe(max(value, 0))
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(Render()))
	}
}

// Render renders every registered metric in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	for _, c := range registry {
		c.writeTo(&buf)
	}
	return buf.String()
}
