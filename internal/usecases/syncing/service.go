package syncing

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vfg2006/dv360-sheets-sync/infrastructure/integrator/bidmanager"
	"github.com/vfg2006/dv360-sheets-sync/infrastructure/integrator/spreadsheet"
	"github.com/vfg2006/dv360-sheets-sync/infrastructure/repository"
	"github.com/vfg2006/dv360-sheets-sync/internal/config"
	"github.com/vfg2006/dv360-sheets-sync/internal/domain"
	"github.com/vfg2006/dv360-sheets-sync/pkg/log"
)

const (
	opSubmit   = "submit"
	opPoll     = "poll"
	opRetrieve = "retrieve"
	opFetch    = "fetch"
	opPublish  = "publish"
)

// Service orchestrates one report sync: submit the query, wait for
// generation, retrieve the artifact and publish it to the worksheet. Each
// step aborts the run on failure; there is no branching beyond that.
type Service struct {
	cfg       *config.Config
	client    bidmanager.Client
	publisher spreadsheet.Publisher
	runs      repository.RunRepository

	pollMaxAttempts int
	pollInterval    time.Duration
	fetchMaxRetries int
	fetchInterval   time.Duration
}

func NewService(
	cfg *config.Config,
	client bidmanager.Client,
	publisher spreadsheet.Publisher,
	runs repository.RunRepository,
) *Service {
	return &Service{
		cfg:             cfg,
		client:          client,
		publisher:       publisher,
		runs:            runs,
		pollMaxAttempts: cfg.Report.PollMaxAttempts,
		pollInterval:    time.Duration(cfg.Report.PollIntervalSeconds) * time.Second,
		fetchMaxRetries: cfg.Report.FetchMaxRetries,
		fetchInterval:   time.Duration(cfg.Report.FetchIntervalSeconds) * time.Second,
	}
}

// SubmitQuery builds the fixed-shape report request for the advertiser,
// submits it, starts generation and records the run. The read-back of the
// created job is informational only.
func (s *Service) SubmitQuery(ctx context.Context, advertiserID string) (string, error) {
	request := domain.NewReportRequest(advertiserID, s.cfg.Report.CampaignID, time.Now())

	log.ForContext(ctx).WithFields(log.Fields{
		"advertiser_id": advertiserID,
		"title":         request.Title,
		"data_range":    request.DataRange,
	}).Info("sync: submitting report query")

	jobID, err := s.client.CreateQuery(ctx, request)
	if err != nil {
		log.ForContext(ctx).WithError(err).Error("sync: failed to create report query")
		return "", newError(opSubmit, err)
	}

	if jobID == "" || jobID == "0" {
		return "", newError(opSubmit, ErrEmptyJobID)
	}

	if err := s.client.RunQuery(ctx, jobID); err != nil {
		log.ForContext(ctx).WithError(err).WithField("job_id", jobID).Error("sync: failed to start report generation")
		return "", newError(opSubmit, err)
	}

	s.confirmQuery(ctx, jobID, request.Title)

	run := &domain.Run{
		JobID:        jobID,
		AdvertiserID: advertiserID,
		SheetName:    s.cfg.Sheet.SheetName,
		Status:       domain.RunStatusSubmitted,
		Request:      request,
	}
	if err := s.runs.Save(ctx, run); err != nil {
		// The history record is supporting data; its loss does not abort
		// the sync.
		log.ForContext(ctx).WithError(err).Warn("sync: failed to record run")
	}

	log.ForContext(ctx).WithField("job_id", jobID).Info("sync: report query submitted")

	return jobID, nil
}

// confirmQuery reads the job back by identifier and checks the title.
// Informational only; it never affects the submit outcome.
func (s *Service) confirmQuery(ctx context.Context, jobID, title string) {
	info, err := s.client.GetQuery(ctx, jobID)
	if err != nil {
		log.ForContext(ctx).WithError(err).WithField("job_id", jobID).Warn("sync: query read-back failed")
		return
	}

	if info.Title != title {
		log.ForContext(ctx).WithFields(log.Fields{
			"job_id":   jobID,
			"expected": title,
			"actual":   info.Title,
		}).Warn("sync: query read-back title mismatch")
		return
	}

	log.ForContext(ctx).WithField("job_id", jobID).Debug("sync: query read-back confirmed")
}

// WaitForReport polls the job at a fixed interval until it is no longer
// running, up to the attempt ceiling. Errors during a status check consume
// an attempt rather than aborting the wait. A report that ended in the
// failed state aborts immediately; no artifact will ever appear for it.
func (s *Service) WaitForReport(ctx context.Context, jobID string) error {
	for attempt := 1; attempt <= s.pollMaxAttempts; attempt++ {
		log.ForContext(ctx).WithFields(log.Fields{
			"job_id":  jobID,
			"attempt": fmt.Sprintf("%d/%d", attempt, s.pollMaxAttempts),
		}).Info("sync: checking report status")

		ref, err := s.client.LatestReport(ctx, jobID)

		switch {
		case err != nil:
			log.ForContext(ctx).WithError(err).WithField("job_id", jobID).Warn("sync: status check failed")

		case ref == nil || ref.Running():
			log.ForContext(ctx).WithField("job_id", jobID).Debug("sync: report still generating")

		case ref.State == domain.ReportStateFailed:
			log.ForContext(ctx).WithField("job_id", jobID).Error("sync: report generation failed")

			return newError(opPoll, ErrReportGenerationFailed)

		default:
			log.ForContext(ctx).WithField("job_id", jobID).Info("sync: report generation completed")

			if err := s.runs.UpdateStatus(ctx, jobID, domain.RunStatusReady); err != nil {
				log.ForContext(ctx).WithError(err).Warn("sync: failed to update run status")
			}

			return nil
		}

		if attempt == s.pollMaxAttempts {
			break
		}

		if err := s.wait(ctx, s.pollInterval); err != nil {
			return newError(opPoll, err)
		}
	}

	log.ForContext(ctx).WithField("job_id", jobID).Error("sync: report generation timed out")

	return newError(opPoll, ErrJobTimedOut)
}

// GetReportData retrieves the produced artifact by polling the report list,
// then downloads and parses it. Listing and download errors consume a retry.
func (s *Service) GetReportData(ctx context.Context, jobID string) (*domain.ReportTable, error) {
	for attempt := 1; attempt <= s.fetchMaxRetries; attempt++ {
		table, err := s.tryGetReportData(ctx, jobID)
		if err == nil {
			return table, nil
		}

		log.ForContext(ctx).WithError(err).WithFields(log.Fields{
			"job_id":  jobID,
			"attempt": fmt.Sprintf("%d/%d", attempt, s.fetchMaxRetries),
		}).Warn("sync: report data not retrieved")

		if attempt == s.fetchMaxRetries {
			break
		}

		if err := s.wait(ctx, s.fetchInterval); err != nil {
			return nil, newError(opRetrieve, err)
		}
	}

	return nil, newError(opRetrieve, ErrReportUnavailable)
}

func (s *Service) tryGetReportData(ctx context.Context, jobID string) (*domain.ReportTable, error) {
	refs, err := s.client.ListReports(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if len(refs) == 0 {
		return nil, ErrReportNotReady
	}

	// Only the most recently listed report matters; older references are
	// discarded.
	latest := refs[len(refs)-1]
	if latest.StoragePath == "" {
		return nil, ErrReportNotReady
	}

	log.ForContext(ctx).WithFields(log.Fields{
		"job_id":   jobID,
		"location": latest.StoragePath,
	}).Info("sync: downloading report")

	body, err := s.client.DownloadReport(ctx, latest.StoragePath)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	table, err := domain.ParseReportCSV(body)
	if err != nil {
		return nil, err
	}

	if err := s.runs.SetArtifact(ctx, jobID, latest.StoragePath); err != nil {
		log.ForContext(ctx).WithError(err).Warn("sync: failed to record artifact location")
	}

	return table, nil
}

// FetchReport is the single-shot retrieval path: resolve the job's latest
// report location in one call and download it to a local file. No retry;
// an unavailable report is reported as such.
func (s *Service) FetchReport(ctx context.Context, jobID, path string) error {
	ref, err := s.client.LatestReport(ctx, jobID)
	if err != nil {
		return newError(opFetch, err)
	}

	if ref == nil || ref.StoragePath == "" {
		log.ForContext(ctx).WithField("job_id", jobID).Info("sync: report not yet available")
		return newError(opFetch, ErrReportNotReady)
	}

	body, err := s.client.DownloadReport(ctx, ref.StoragePath)
	if err != nil {
		return newError(opFetch, err)
	}
	defer body.Close()

	file, err := os.Create(path)
	if err != nil {
		return newError(opFetch, err)
	}
	defer file.Close()

	written, err := io.Copy(file, body)
	if err != nil {
		return newError(opFetch, err)
	}

	log.ForContext(ctx).WithFields(log.Fields{
		"job_id": jobID,
		"file":   path,
		"bytes":  written,
	}).Info("sync: report downloaded to file")

	return nil
}

// Run executes the canonical sequence: submit (or resume) → wait →
// retrieve → publish. The first failing step aborts the run. Every log line
// of the run carries the same correlation id.
func (s *Service) Run(ctx context.Context) error {
	ctx, _ = log.WithCorrelationID(ctx)

	log.ForContext(ctx).Info("sync: starting report sync run")

	jobID := s.cfg.Report.ResumeJobID
	if jobID != "" {
		log.ForContext(ctx).WithField("job_id", jobID).Info("sync: resuming existing job, skipping submission")
	} else {
		var err error
		if jobID, err = s.SubmitQuery(ctx, s.cfg.Report.AdvertiserID); err != nil {
			return err
		}
	}

	if err := s.WaitForReport(ctx, jobID); err != nil {
		s.markFailed(ctx, jobID)
		return err
	}

	table, err := s.GetReportData(ctx, jobID)
	if err != nil {
		s.markFailed(ctx, jobID)
		return err
	}

	if err := s.publisher.Publish(ctx, s.cfg.Sheet.SpreadsheetID, table, s.cfg.Sheet.SheetName); err != nil {
		log.ForContext(ctx).WithError(err).Error("sync: failed to publish report to sheet")
		s.markFailed(ctx, jobID)
		return newError(opPublish, err)
	}

	if err := s.runs.MarkPublished(ctx, jobID, table.RowCount()); err != nil {
		log.ForContext(ctx).WithError(err).Warn("sync: failed to mark run as published")
	}

	if s.cfg.Report.LocalCopyFile != "" {
		if err := s.FetchReport(ctx, jobID, s.cfg.Report.LocalCopyFile); err != nil {
			log.ForContext(ctx).WithError(err).Warn("sync: failed to save local report copy")
		}
	}

	log.ForContext(ctx).WithFields(log.Fields{
		"job_id": jobID,
		"sheet":  s.cfg.Sheet.SheetName,
		"rows":   table.RowCount(),
	}).Info("sync: report sync run completed")

	return nil
}

func (s *Service) markFailed(ctx context.Context, jobID string) {
	if err := s.runs.UpdateStatus(ctx, jobID, domain.RunStatusFailed); err != nil {
		log.ForContext(ctx).WithError(err).Warn("sync: failed to mark run as failed")
	}
}

// wait sleeps for the fixed interval, returning early only when the run
// context is cancelled.
func (s *Service) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
