package validator

import (
	"math"
	"net/http"

	"github.com/avelter/qrscan/internal/model"
)

// Summarize aggregates per-URL validation records into the totals reported in
// a scan.
func Summarize(records []model.QRValidationRecord) model.ValidationSummary {
	summary := model.ValidationSummary{
		Total: len(records),
	}

	var timeSum float64
	var timed int
	for _, rec := range records {
		// Only an exact 200 counts as success; redirects and other 2xx are
		// treated as errors in the totals.
		if rec.HTTPStatus != nil && *rec.HTTPStatus == http.StatusOK {
			summary.HTTPSuccess++
		} else {
			summary.HTTPErrors++
		}
		if ok, evaluated := rec.DomainValid.Bool(); evaluated {
			if ok {
				summary.DomainValid++
			} else {
				summary.DomainInvalid++
			}
		}
		if ok, evaluated := rec.UTMValid.Bool(); evaluated {
			if ok {
				summary.UTMValid++
			} else {
				summary.UTMInvalid++
			}
		}
		if ok, evaluated := rec.ContentValid.Bool(); evaluated {
			if ok {
				summary.TextValid++
			} else {
				summary.TextInvalid++
			}
		}
		if rec.ResponseTimeMS > 0 {
			timeSum += rec.ResponseTimeMS
			timed++
		}
	}

	if timed > 0 {
		summary.AvgResponseTime = math.Round(timeSum/float64(timed)*100) / 100
	}

	return summary
}
