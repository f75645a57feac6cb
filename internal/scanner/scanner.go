package scanner

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avelter/qrscan/internal/aiextract"
	"github.com/avelter/qrscan/internal/document"
	"github.com/avelter/qrscan/internal/interfaces"
	"github.com/avelter/qrscan/internal/logging"
	"github.com/avelter/qrscan/internal/model"
	"github.com/avelter/qrscan/internal/qrdetect"
	"github.com/avelter/qrscan/internal/textextract"
	"github.com/avelter/qrscan/internal/validator"
)

// Version is reported in every scan's metadata.
const Version = "2.0"

// PageSource is the slice of an opened document the scanner needs.
type PageSource interface {
	PageCount() int
	RenderPage(n int, zoom float64) (image.Image, error)
	PageText(n int) (string, error)
	Close() error
}

// OpenFunc opens a document for scanning.
type OpenFunc func(path string) (PageSource, error)

// Detector finds QR payloads in a rendered page image.
type Detector interface {
	DetectWithEnhancement(img image.Image) []string
}

// URLValidator probes one URL against the task's expectations.
type URLValidator interface {
	ValidateAll(ctx context.Context, payloads []validator.Payload, task *model.ScanTask) []model.QRValidationRecord
}

// Scanner runs the full pipeline over one document: render each page, detect
// QR codes, validate their URLs, extract text, and fold everything into a
// single report.
type Scanner struct {
	Open      OpenFunc
	Detector  Detector
	Validator URLValidator
	Extractor aiextract.Extractor

	// AIStrategy controls how page text reaches the extractor. PerPage by
	// default; WholeDocument trades page attribution for a single call.
	AIStrategy aiextract.Strategy

	logger   logging.Logger
	progress interfaces.ProgressSink
}

func New(v URLValidator, extractor aiextract.Extractor, logger logging.Logger, progress interfaces.ProgressSink) *Scanner {
	if progress == nil {
		progress = interfaces.NopProgressSink{}
	}
	return &Scanner{
		Open: func(path string) (PageSource, error) {
			return document.Open(path)
		},
		Detector:   qrdetect.New(logger),
		Validator:  v,
		Extractor:  extractor,
		AIStrategy: aiextract.PerPage{},
		logger:     logger.With(logging.Field{Key: "component", Value: "scanner"}),
		progress:   progress,
	}
}

// Scan processes the task's document. The only fatal failure is an unreadable
// document; everything that goes wrong on a single page is logged, reported
// inside the results, and does not stop the remaining pages.
func (s *Scanner) Scan(ctx context.Context, scanID string, task model.ScanTask) (*model.ScanReport, error) {
	src, err := s.Open(task.DocumentPath)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer src.Close()

	total := src.PageCount()
	s.report(scanID, fmt.Sprintf("Reading PDF: %d pages", total))
	s.logger.Info("scan started",
		logging.Field{Key: "scan_id", Value: scanID},
		logging.Field{Key: "pages", Value: total})

	var (
		urlResults  []model.QRValidationRecord
		extractions []model.TextExtractionRecord
		aiPages     []aiextract.PageText
		pagesWithQR int
	)
	runAI := s.aiEnabled(&task)

	for page := 1; page <= total; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.report(scanID, fmt.Sprintf("Reading page %d/%d", page, total))

		pageRecords := s.processQRCodes(ctx, src, page, &task)
		if len(pageRecords) > 0 {
			urlResults = append(urlResults, pageRecords...)
			pagesWithQR++
		}

		var pageText string
		var textLoaded bool
		loadText := func() string {
			if !textLoaded {
				textLoaded = true
				text, err := src.PageText(page)
				if err != nil {
					s.logger.Warn("text extraction failed",
						logging.Field{Key: "page", Value: page},
						logging.Field{Key: "error", Value: err.Error()})
					return ""
				}
				pageText = text
			}
			return pageText
		}

		if task.ExtractText && textextract.ShouldExtract(page) {
			extractions = append(extractions, textextract.ExtractLines(loadText(), page)...)
		}

		if runAI {
			aiPages = append(aiPages, aiextract.PageText{Page: page, Text: loadText()})
		}

		s.report(scanID, fmt.Sprintf("Page %d scanned", page))
	}

	var aiItems []model.AIExtractionItem
	if runAI && len(aiPages) > 0 {
		items, err := s.AIStrategy.Run(ctx, s.Extractor, aiPages, task.AIRequest)
		if err != nil {
			return nil, err
		}
		aiItems = items
	}

	report := s.finalize(scanID, total, pagesWithQR, urlResults, extractions, aiItems, &task)
	s.logger.Info("scan finished",
		logging.Field{Key: "scan_id", Value: scanID},
		logging.Field{Key: "unique_urls", Value: report.Stats.UniqueURLs},
		logging.Field{Key: "extracted_lines", Value: report.Stats.ExtractedLines})
	return report, nil
}

// processQRCodes renders the page, detects QR payloads, and validates the
// http(s) ones. Non-URL payloads are logged and skipped.
func (s *Scanner) processQRCodes(ctx context.Context, src PageSource, page int, task *model.ScanTask) []model.QRValidationRecord {
	img, err := src.RenderPage(page, document.DefaultZoom)
	if err != nil {
		s.logger.Warn("page render failed",
			logging.Field{Key: "page", Value: page},
			logging.Field{Key: "error", Value: err.Error()})
		return nil
	}

	var payloads []validator.Payload
	for _, payload := range s.Detector.DetectWithEnhancement(img) {
		if strings.HasPrefix(payload, "http://") || strings.HasPrefix(payload, "https://") {
			payloads = append(payloads, validator.Payload{URL: payload, Page: page})
		} else {
			s.logger.Debug("skipping non-url qr payload",
				logging.Field{Key: "page", Value: page},
				logging.Field{Key: "payload", Value: payload})
		}
	}
	if len(payloads) == 0 {
		return nil
	}

	return s.Validator.ValidateAll(ctx, payloads, task)
}

func (s *Scanner) aiEnabled(task *model.ScanTask) bool {
	return s.Extractor != nil && s.Extractor.Enabled() && !task.AIRequest.IsZero()
}

func (s *Scanner) finalize(scanID string, totalPages, pagesWithQR int, urlResults []model.QRValidationRecord, extractions []model.TextExtractionRecord, aiItems []model.AIExtractionItem, task *model.ScanTask) *model.ScanReport {
	unique := dedupeByURLAndPage(urlResults)

	uniqueURLs := map[string]bool{}
	for _, rec := range unique {
		uniqueURLs[rec.URL] = true
	}

	stats := model.ScanStats{
		TotalPages:       totalPages,
		PagesWithQR:      pagesWithQR,
		UniqueURLs:       len(uniqueURLs),
		TotalURLResults:  len(unique),
		ExtractedLines:   len(extractions),
		AIExtractedItems: len(aiItems),
	}

	var summary *model.ValidationSummary
	if len(unique) > 0 {
		sum := validator.Summarize(unique)
		summary = &sum
	}

	var aiResult *model.AIExtractionResult
	if len(aiItems) > 0 {
		aiResult = &model.AIExtractionResult{
			Success:          true,
			Items:            aiItems,
			TotalExtractions: len(aiItems),
			ModelUsed:        aiextract.GeminiModel,
		}
		if task.AIRequest != nil {
			aiResult.Query = task.AIRequest.Query
			aiResult.Keywords = task.AIRequest.Keywords
		}
	}

	return &model.ScanReport{
		Stats:             stats,
		URLResults:        unique,
		Extractions:       extractions,
		AIExtraction:      aiResult,
		ValidationSummary: summary,
		TextStats:         textextract.ComputeStats(extractions),
		QualityScores:     model.ComputeQualityScores(stats, summary, aiResult),
		Metadata:          s.metadata(scanID, task),
	}
}

// dedupeByURLAndPage keeps the first record for each (url, page) pair, in
// encounter order.
func dedupeByURLAndPage(records []model.QRValidationRecord) []model.QRValidationRecord {
	type key struct {
		url  string
		page int
	}
	seen := map[key]bool{}
	unique := make([]model.QRValidationRecord, 0, len(records))
	for _, rec := range records {
		k := key{rec.URL, rec.Page}
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, rec)
	}
	return unique
}

func (s *Scanner) metadata(scanID string, task *model.ScanTask) model.ScanMetadata {
	meta := model.ScanMetadata{
		ScanID: scanID,
		ScanOptions: model.OptionsSummary{
			Timeout:             task.Timeout,
			SearchTextsCount:    len(task.SearchTexts),
			HasDomainValidation: len(task.ExpectedDomains) > 0,
			HasUTMValidation:    len(task.ExpectedUTM) > 0,
			HasAIExtraction:     !task.AIRequest.IsZero(),
		},
		ScannerVersion: Version,
		ModulesUsed:    modulesUsed(task),
		CompletedAt:    time.Now().UTC(),
	}

	meta.FileInfo.Filename = filepath.Base(task.DocumentPath)
	if info, err := os.Stat(task.DocumentPath); err == nil {
		meta.FileInfo.SizeBytes = info.Size()
		meta.FileInfo.SizeMB = math.Round(float64(info.Size())/1024/1024*100) / 100
	}

	return meta
}

func modulesUsed(task *model.ScanTask) []string {
	modules := []string{"qr_detection", "http_validation"}
	if task.ExtractText {
		modules = append(modules, "text_extraction")
	}
	if !task.AIRequest.IsZero() {
		modules = append(modules, "ai_extraction")
	}
	return modules
}

func (s *Scanner) report(scanID, message string) {
	s.progress.Progress(scanID, message)
}
