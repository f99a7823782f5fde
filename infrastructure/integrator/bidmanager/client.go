package bidmanager

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/api/doubleclickbidmanager/v2"

	"github.com/vfg2006/dv360-sheets-sync/internal/domain"
)

// Client wraps the Bid Manager v2 operations the sync workflow needs.
type Client interface {
	// CreateQuery submits the report request descriptor and returns the
	// job identifier assigned by the API.
	CreateQuery(ctx context.Context, req domain.ReportRequest) (string, error)

	// RunQuery starts asynchronous generation for a created query.
	RunQuery(ctx context.Context, jobID string) error

	// GetQuery reads the job back by identifier.
	GetQuery(ctx context.Context, jobID string) (*domain.QueryInfo, error)

	// ListReports returns the report artifacts produced for a job, in the
	// order the API lists them (oldest first).
	ListReports(ctx context.Context, jobID string) ([]domain.ReportRef, error)

	// LatestReport returns the most recent artifact for a job, or nil when
	// the job has produced none yet.
	LatestReport(ctx context.Context, jobID string) (*domain.ReportRef, error)

	// DownloadReport fetches the artifact content from its storage location.
	DownloadReport(ctx context.Context, location string) (io.ReadCloser, error)
}

type BidManagerClient struct {
	service *doubleclickbidmanager.Service

	// Storage locations are pre-signed URLs; the download bypasses the
	// authenticated API client.
	downloader *http.Client
}

func NewClient(service *doubleclickbidmanager.Service) Client {
	return &BidManagerClient{
		service:    service,
		downloader: &http.Client{Timeout: 5 * time.Minute},
	}
}

func parseJobID(jobID string) (int64, error) {
	return strconv.ParseInt(jobID, 10, 64)
}

func formatJobID(queryID int64) string {
	return strconv.FormatInt(queryID, 10)
}
