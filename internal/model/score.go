package model

import "math"

// round1 rounds to one decimal place, the precision used throughout the
// quality-score block.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ComputeQualityScores rates the scan along four dimensions. Dimensions that
// were never exercised (no advanced validation configured, no AI items) are
// left nil and excluded from the overall average, so an unconfigured scan is
// not penalized for them.
func ComputeQualityScores(stats ScanStats, summary *ValidationSummary, ai *AIExtractionResult) QualityScores {
	scores := QualityScores{
		Details: ScoreDetails{
			TotalQRCodes:       stats.UniqueURLs,
			AIExtractionsCount: stats.AIExtractedItems,
			TextLinesExtracted: stats.ExtractedLines,
		},
	}

	if stats.TotalPages > 0 {
		scores.QRDetection = round1(float64(stats.PagesWithQR) / float64(stats.TotalPages) * 100)
	}

	if summary != nil && summary.Total > 0 {
		scores.HTTPValidation = round1(float64(summary.HTTPSuccess) / float64(summary.Total) * 100)
		scores.Details.SuccessfulHTTPRequests = summary.HTTPSuccess
		scores.Details.AvgResponseTimeMS = summary.AvgResponseTime

		validCount := summary.DomainValid + summary.UTMValid + summary.TextValid
		totalValidations := validCount + summary.DomainInvalid + summary.UTMInvalid + summary.TextInvalid
		if totalValidations > 0 {
			adv := round1(float64(validCount) / float64(totalValidations) * 100)
			scores.AdvancedValidation = &adv
		}
	}

	if ai != nil && ai.Success && len(ai.Items) > 0 {
		s := math.Min(100, float64(len(ai.Items))*10)
		scores.AIExtraction = &s
	}

	present := []float64{scores.QRDetection, scores.HTTPValidation}
	if scores.AdvancedValidation != nil {
		present = append(present, *scores.AdvancedValidation)
	}
	if scores.AIExtraction != nil {
		present = append(present, *scores.AIExtraction)
	}

	var sum float64
	for _, s := range present {
		sum += s
	}
	scores.Overall = round1(sum / float64(len(present)))

	return scores
}
