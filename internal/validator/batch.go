package validator

import (
	"context"
	"sync"

	"github.com/avelter/qrscan/internal/model"
)

// DefaultConcurrency bounds parallel URL probes per scan.
const DefaultConcurrency = 4

// payload pairs a URL with the page it was detected on.
type Payload struct {
	URL  string
	Page int
}

// ValidateAll probes every payload with bounded concurrency and returns the
// records in input order.
func (v *Validator) ValidateAll(ctx context.Context, payloads []Payload, task *model.ScanTask) []model.QRValidationRecord {
	return v.validateAll(ctx, payloads, task, DefaultConcurrency)
}

func (v *Validator) validateAll(ctx context.Context, payloads []Payload, task *model.ScanTask, concurrency int) []model.QRValidationRecord {
	if concurrency < 1 {
		concurrency = 1
	}

	records := make([]model.QRValidationRecord, len(payloads))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, p := range payloads {
		wg.Add(1)
		go func(i int, p Payload) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			records[i] = v.Validate(ctx, p.URL, p.Page, task)
		}(i, p)
	}

	wg.Wait()
	return records
}
