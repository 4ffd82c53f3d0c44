package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"invoicedash/internal/domain"
	"invoicedash/internal/export"
	"invoicedash/internal/port"
)

var errUploadDropped = errors.New("upload dropped: server shutting down")

// UploadRequest is the DTO for an uploaded invoice document.
type UploadRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
	User        string
}

// IntakeConfig holds settings for turning documents into invoices.
type IntakeConfig struct {
	SLAWindow     time.Duration
	EngineName    string
	MaxFileSize   int64
	PresignExpiry int64
	JobRetention  time.Duration
	Worker        UploadWorkerConfig
}

// DocumentLink is a temporary URL for downloading a stored document.
type DocumentLink struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}

// IntakeService turns uploaded documents into routed invoices.
type IntakeService interface {
	// Process uploads, extracts and routes a document synchronously.
	Process(ctx context.Context, req UploadRequest) (*domain.Invoice, error)
	// Submit queues a document for background processing. Jobs cannot be
	// cancelled once submitted.
	Submit(ctx context.Context, req UploadRequest) (*domain.UploadJob, error)
	Job(ctx context.Context, id string) (*domain.UploadJob, error)
	Validate(ctx context.Context, invoiceID string) (*domain.ValidationResult, error)
	// DocumentLink returns a time-limited download URL for an invoice's source document.
	DocumentLink(ctx context.Context, invoiceID string) (*DocumentLink, error)
	// Run drives the background worker until ctx is canceled.
	Run(ctx context.Context)
}

type intakeService struct {
	repo      port.InvoiceRepository
	provider  port.ExtractionProvider
	storage   port.ObjectStorage
	publisher port.EventPublisher
	cfg       IntakeConfig
	log       zerolog.Logger
	now       func() time.Time
	worker    *UploadWorker

	mu   sync.RWMutex
	jobs map[string]*domain.UploadJob
}

// NewIntakeService creates a new IntakeService implementation. storage and
// publisher may be nil.
func NewIntakeService(
	repo port.InvoiceRepository,
	provider port.ExtractionProvider,
	storage port.ObjectStorage,
	publisher port.EventPublisher,
	cfg IntakeConfig,
	log zerolog.Logger,
) IntakeService {
	if cfg.SLAWindow <= 0 {
		cfg.SLAWindow = 24 * time.Hour
	}
	if cfg.EngineName == "" {
		cfg.EngineName = "AI Engine v2.1"
	}
	if cfg.JobRetention <= 0 {
		cfg.JobRetention = time.Hour
	}
	s := &intakeService{
		repo:      repo,
		provider:  provider,
		storage:   storage,
		publisher: publisher,
		cfg:       cfg,
		log:       log.With().Str("component", "intake_service").Logger(),
		now:       time.Now,
		jobs:      make(map[string]*domain.UploadJob),
	}
	s.worker = NewUploadWorker(cfg.Worker, s.runJob, log)
	return s
}

func (s *intakeService) Run(ctx context.Context) {
	s.worker.Start(ctx)
	dropped := s.worker.Drain()
	for _, task := range dropped {
		s.finishJob(task.JobID, nil, errUploadDropped)
	}
	if len(dropped) > 0 {
		s.log.Warn().Int("count", len(dropped)).Msg("intakeService.Run: queued uploads dropped at shutdown")
	}
}

func (s *intakeService) Process(ctx context.Context, req UploadRequest) (*domain.Invoice, error) {
	data, err := s.readDocument(req)
	if err != nil {
		return nil, err
	}
	return s.process(ctx, req, data)
}

func (s *intakeService) Submit(_ context.Context, req UploadRequest) (*domain.UploadJob, error) {
	// The request body is gone once the handler returns, so buffer it now.
	data, err := s.readDocument(req)
	if err != nil {
		return nil, err
	}
	req.Body = bytes.NewReader(data)
	req.Size = int64(len(data))

	job := &domain.UploadJob{
		ID:          uuid.NewString(),
		FileName:    req.FileName,
		Status:      domain.JobProcessing,
		SubmittedAt: s.now(),
	}
	s.mu.Lock()
	s.pruneJobsLocked(job.SubmittedAt)
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if err := s.worker.Enqueue(UploadTask{JobID: job.ID, Request: req}); err != nil {
		s.mu.Lock()
		delete(s.jobs, job.ID)
		s.mu.Unlock()
		return nil, err
	}

	s.log.Info().Str("job_id", job.ID).Str("file_name", req.FileName).Msg("intakeService.Submit: upload queued")
	out := *job
	return &out, nil
}

func (s *intakeService) Job(_ context.Context, id string) (*domain.UploadJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	out := *job
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		out.CompletedAt = &t
	}
	return &out, nil
}

func (s *intakeService) Validate(ctx context.Context, invoiceID string) (*domain.ValidationResult, error) {
	if _, ok := s.repo.Get(invoiceID); !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	res, err := s.provider.Validate(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: validate %s: %w", domain.ErrExtractionFailed, invoiceID, err)
	}
	return res, nil
}

func (s *intakeService) DocumentLink(ctx context.Context, invoiceID string) (*DocumentLink, error) {
	inv, ok := s.repo.Get(invoiceID)
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	if s.storage == nil || inv.DocumentKey == "" {
		return nil, fmt.Errorf("document for invoice %s: %w", invoiceID, domain.ErrNotFound)
	}

	expiry := s.cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 3600
	}
	url, err := s.storage.GetPresignedURL(ctx, inv.DocumentKey, expiry)
	if err != nil {
		return nil, fmt.Errorf("presigning document for invoice %s: %w", invoiceID, err)
	}
	return &DocumentLink{URL: url, ExpiresIn: expiry}, nil
}

func (s *intakeService) runJob(ctx context.Context, task UploadTask) {
	data, _ := io.ReadAll(task.Request.Body)
	inv, err := s.process(ctx, task.Request, data)
	s.finishJob(task.JobID, inv, err)
}

func (s *intakeService) finishJob(jobID string, inv *domain.Invoice, err error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	job.CompletedAt = &now
	if err != nil {
		job.Status = domain.JobFailed
		job.Error = err.Error()
		s.log.Warn().Err(err).Str("job_id", job.ID).Msg("intakeService: upload job failed")
		return
	}
	job.Status = domain.JobCompleted
	job.InvoiceID = inv.ID
}

// pruneJobsLocked forgets finished jobs older than the retention window.
// s.mu must be held.
func (s *intakeService) pruneJobsLocked(now time.Time) {
	cutoff := now.Add(-s.cfg.JobRetention)
	for id, job := range s.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}

// process runs upload, storage, extraction and routing for an already
// buffered document. Nothing is added to the store unless every step succeeds.
func (s *intakeService) process(ctx context.Context, req UploadRequest, data []byte) (*domain.Invoice, error) {
	started := s.now()
	log := s.log.With().Str("file_name", req.FileName).Logger()

	up, err := s.provider.Upload(ctx, port.Document{
		FileName:    req.FileName,
		ContentType: req.ContentType,
		Size:        int64(len(data)),
		Body:        bytes.NewReader(data),
	})
	if err != nil {
		log.Warn().Err(err).Msg("intakeService.Process: provider upload failed")
		return nil, fmt.Errorf("%w: upload: %w", domain.ErrExtractionFailed, err)
	}
	log = log.With().Str("invoice_id", up.InvoiceID).Logger()

	documentKey, documentURL, err := s.store(ctx, up.InvoiceID, req, data)
	if err != nil {
		log.Error().Err(err).Msg("intakeService.Process: storing document failed")
		return nil, err
	}

	res, err := s.provider.Extract(ctx, up.InvoiceID, req.FileName)
	if err != nil {
		log.Warn().Err(err).Msg("intakeService.Process: extraction failed")
		s.discard(documentKey)
		return nil, fmt.Errorf("%w: extract: %w", domain.ErrExtractionFailed, err)
	}

	inv := s.buildInvoice(req, up, res, documentURL, started)
	inv.DocumentKey = documentKey
	created, err := s.repo.Add(inv)
	if err != nil {
		s.discard(documentKey)
		return nil, err
	}

	log.Info().
		Str("status", string(created.Status)).
		Float64("overall_confidence", created.OverallConfidence).
		Dur("elapsed", s.now().Sub(started)).
		Msg("intakeService.Process: invoice extracted and routed")

	if s.publisher != nil {
		event := port.InvoiceEvent{
			EventType:  port.EventInvoiceCreated,
			InvoiceID:  created.ID,
			Actor:      req.User,
			OccurredAt: s.now().UTC(),
			Payload: map[string]interface{}{
				"status":             created.Status,
				"overall_confidence": created.OverallConfidence,
				"file_name":          created.FileName,
			},
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Msg("failed to publish invoice event (non-fatal)")
		}
	}
	return &created, nil
}

func (s *intakeService) buildInvoice(req UploadRequest, up *port.UploadResult, res *port.ExtractionResult, documentURL string, now time.Time) domain.Invoice {
	fieldValue := func(key string) string {
		for _, f := range res.Fields {
			if f.Key == key {
				return f.Value
			}
		}
		return ""
	}

	vendor := fieldValue("Vendor Name")
	if vendor == "" {
		vendor = "Unknown"
	}
	total, err := domain.ParseAmount(fieldValue("Total Amount"))
	if err != nil {
		total = 0
	}

	status, stage := s.repo.Thresholds().Route(res.OverallConfidence)
	inv := domain.Invoice{
		ID:                up.InvoiceID,
		FileName:          req.FileName,
		UploadedAt:        now,
		Status:            status,
		Stage:             stage,
		Vendor:            vendor,
		InvoiceNumber:     fieldValue("Invoice Number"),
		InvoiceDate:       fieldValue("Invoice Date"),
		DueDate:           fieldValue("Due Date"),
		TotalAmount:       total,
		Currency:          "USD",
		LineItems:         res.LineItems,
		ExtractedFields:   res.Fields,
		OverallConfidence: res.OverallConfidence,
		ProcessingTimeMs:  up.ProcessingTimeMs,
		DocumentURL:       documentURL,
		Priority:          domain.PriorityForConfidence(res.OverallConfidence),
		AuditTrail: []domain.AuditEntry{
			{
				ID:        uuid.NewString(),
				Action:    domain.AuditUploaded,
				Timestamp: now,
				User:      req.User,
				Details:   "Document uploaded",
			},
			{
				ID:        uuid.NewString(),
				Action:    domain.AuditExtracted,
				Timestamp: s.now(),
				User:      s.cfg.EngineName,
				Details:   fmt.Sprintf("Extracted %d fields with %.1f%% confidence", len(res.Fields), res.OverallConfidence),
			},
		},
	}
	if status == domain.StatusReview {
		deadline := now.Add(s.cfg.SLAWindow)
		inv.SLADeadline = &deadline
	}
	return inv
}

func (s *intakeService) readDocument(req UploadRequest) ([]byte, error) {
	if !allowedDocument(req.FileName, req.ContentType) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, req.FileName)
	}
	if s.cfg.MaxFileSize > 0 && req.Size > s.cfg.MaxFileSize {
		return nil, domain.ErrFileTooLarge
	}

	body := req.Body
	if s.cfg.MaxFileSize > 0 {
		body = io.LimitReader(body, s.cfg.MaxFileSize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading upload %s: %w", req.FileName, err)
	}
	if s.cfg.MaxFileSize > 0 && int64(len(data)) > s.cfg.MaxFileSize {
		return nil, domain.ErrFileTooLarge
	}
	return data, nil
}

// store keeps the raw document and returns its key and a URL for it. Without
// storage configured both are empty.
func (s *intakeService) store(ctx context.Context, invoiceID string, req UploadRequest, data []byte) (string, string, error) {
	if s.storage == nil {
		return "", "", nil
	}

	key := fmt.Sprintf("invoices/%s/%s", invoiceID, export.SanitizeFilename(strings.TrimSuffix(req.FileName, filepath.Ext(req.FileName)))+strings.ToLower(filepath.Ext(req.FileName)))
	out, err := s.storage.Upload(ctx, port.UploadInput{
		Key:         key,
		Body:        bytes.NewReader(data),
		ContentType: req.ContentType,
		Size:        int64(len(data)),
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
	}

	return key, out.Location, nil
}

func (s *intakeService) discard(key string) {
	if s.storage == nil || key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.storage.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("intakeService: failed to delete orphaned document")
	}
}

func allowedDocument(fileName, contentType string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if _, ok := domain.AllowedExtensions[ext]; ok {
		return true
	}
	ct := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	_, ok := domain.AllowedContentTypes[strings.ToLower(ct)]
	return ok
}
