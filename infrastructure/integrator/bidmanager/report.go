package bidmanager

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/api/doubleclickbidmanager/v2"

	"github.com/vfg2006/dv360-sheets-sync/internal/domain"
)

func (c *BidManagerClient) ListReports(ctx context.Context, jobID string) ([]domain.ReportRef, error) {
	queryID, err := parseJobID(jobID)
	if err != nil {
		return nil, fmt.Errorf("invalid job identifier %q: %w", jobID, err)
	}

	refs := []domain.ReportRef{}
	pageToken := ""

	for {
		call := c.service.Queries.Reports.List(queryID).Context(ctx)
		if pageToken != "" {
			call.PageToken(pageToken)
		}

		response, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list reports for job %s: %w", jobID, err)
		}

		for _, report := range response.Reports {
			refs = append(refs, toReportRef(report))
		}

		if pageToken = response.NextPageToken; pageToken == "" {
			break
		}
	}

	return refs, nil
}

func (c *BidManagerClient) LatestReport(ctx context.Context, jobID string) (*domain.ReportRef, error) {
	refs, err := c.ListReports(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if len(refs) == 0 {
		return nil, nil
	}

	latest := refs[len(refs)-1]
	return &latest, nil
}

func (c *BidManagerClient) DownloadReport(ctx context.Context, location string) (io.ReadCloser, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	response, err := c.downloader.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to download report: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		response.Body.Close()
		return nil, fmt.Errorf("report download returned status %s", response.Status)
	}

	return response.Body, nil
}

func toReportRef(report *doubleclickbidmanager.Report) domain.ReportRef {
	ref := domain.ReportRef{}

	if report.Key != nil {
		ref.ID = formatJobID(report.Key.ReportId)
	}

	if report.Metadata != nil {
		ref.StoragePath = report.Metadata.GoogleCloudStoragePath

		if report.Metadata.Status != nil {
			ref.State = domain.ReportState(report.Metadata.Status.State)
		}
	}

	return ref
}
