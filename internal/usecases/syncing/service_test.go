package syncing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/api/googleapi"

	bidmanagermocks "github.com/vfg2006/dv360-sheets-sync/infrastructure/integrator/bidmanager/mocks"
	spreadsheetmocks "github.com/vfg2006/dv360-sheets-sync/infrastructure/integrator/spreadsheet/mocks"
	"github.com/vfg2006/dv360-sheets-sync/infrastructure/repository/mocks"
	"github.com/vfg2006/dv360-sheets-sync/internal/config"
	"github.com/vfg2006/dv360-sheets-sync/internal/domain"
)

type serviceMocks struct {
	client    *bidmanagermocks.MockClient
	publisher *spreadsheetmocks.MockPublisher
	runs      *mocks.MockRunRepository
}

// newTestService wires the service with mocked collaborators and zeroed
// intervals so retry loops run without real sleeps.
func newTestService(t *testing.T, mutate func(*config.Config)) (*Service, *serviceMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := &serviceMocks{
		client:    bidmanagermocks.NewMockClient(ctrl),
		publisher: spreadsheetmocks.NewMockPublisher(ctrl),
		runs:      mocks.NewMockRunRepository(ctrl),
	}

	cfg := &config.Config{
		Report: config.Report{
			AdvertiserID:         "164337",
			PollMaxAttempts:      10,
			PollIntervalSeconds:  0,
			FetchMaxRetries:      5,
			FetchIntervalSeconds: 0,
		},
		Sheet: config.Sheet{
			SpreadsheetID: "spreadsheet-1",
			SheetName:     "Data",
		},
	}

	if mutate != nil {
		mutate(cfg)
	}

	return NewService(cfg, m.client, m.publisher, m.runs), m
}

func TestService_SubmitQuery(t *testing.T) {
	service, m := newTestService(t, nil)

	var submitted domain.ReportRequest

	m.client.EXPECT().
		CreateQuery(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req domain.ReportRequest) (string, error) {
			submitted = req
			return "92112", nil
		})

	m.client.EXPECT().
		RunQuery(gomock.Any(), "92112").
		Return(nil)

	m.client.EXPECT().
		GetQuery(gomock.Any(), "92112").
		DoAndReturn(func(_ context.Context, _ string) (*domain.QueryInfo, error) {
			return &domain.QueryInfo{ID: "92112", Title: submitted.Title}, nil
		})

	m.runs.EXPECT().
		Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, run *domain.Run) error {
			assert.Equal(t, "92112", run.JobID)
			assert.Equal(t, "164337", run.AdvertiserID)
			assert.Equal(t, "Data", run.SheetName)
			assert.Equal(t, domain.RunStatusSubmitted, run.Status)
			return nil
		})

	jobID, err := service.SubmitQuery(context.Background(), "164337")

	require.NoError(t, err)
	assert.Equal(t, "92112", jobID)
	assert.True(t, strings.HasPrefix(submitted.Title, "DV360 Report "))
	assert.Equal(t, "164337", submitted.AdvertiserID)
	assert.Equal(t, domain.DataRangeLast7Days, submitted.DataRange)
	assert.Equal(t, domain.DefaultGroupBys, submitted.GroupBys)
	assert.Equal(t, domain.DefaultMetrics, submitted.Metrics)
}

func TestService_SubmitQuery_EmptyJobID(t *testing.T) {
	service, m := newTestService(t, nil)

	m.client.EXPECT().
		CreateQuery(gomock.Any(), gomock.Any()).
		Return("", nil)

	_, err := service.SubmitQuery(context.Background(), "164337")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyJobID)
}

func TestService_SubmitQuery_TransportFailure(t *testing.T) {
	service, m := newTestService(t, nil)

	apiErr := &googleapi.Error{Code: 500, Message: "backend error"}
	m.client.EXPECT().
		CreateQuery(gomock.Any(), gomock.Any()).
		Return("", fmt.Errorf("failed to create query: %w", apiErr))

	_, err := service.SubmitQuery(context.Background(), "164337")

	require.Error(t, err)
	assert.True(t, IsTransport(err))

	var tagged *Error
	require.ErrorAs(t, err, &tagged)
	assert.Equal(t, "submit", tagged.Op)
}

func TestService_SubmitQuery_AuthFailure(t *testing.T) {
	service, m := newTestService(t, nil)

	apiErr := &googleapi.Error{Code: 401, Message: "invalid credentials"}
	m.client.EXPECT().
		CreateQuery(gomock.Any(), gomock.Any()).
		Return("", fmt.Errorf("failed to create query: %w", apiErr))

	_, err := service.SubmitQuery(context.Background(), "164337")

	require.Error(t, err)
	assert.True(t, IsAuth(err))
}

func TestService_WaitForReport_ReadyAfterRetries(t *testing.T) {
	service, m := newTestService(t, nil)

	running := &domain.ReportRef{ID: "7", State: domain.ReportStateRunning}
	done := &domain.ReportRef{ID: "7", State: domain.ReportStateDone, StoragePath: "https://storage/report.csv"}

	gomock.InOrder(
		m.client.EXPECT().LatestReport(gomock.Any(), "92112").Return(nil, nil),
		m.client.EXPECT().LatestReport(gomock.Any(), "92112").Return(running, nil),
		m.client.EXPECT().LatestReport(gomock.Any(), "92112").Return(done, nil),
	)

	m.runs.EXPECT().
		UpdateStatus(gomock.Any(), "92112", domain.RunStatusReady).
		Return(nil)

	err := service.WaitForReport(context.Background(), "92112")

	assert.NoError(t, err)
}

func TestService_WaitForReport_TimesOutAfterMaxAttempts(t *testing.T) {
	service, m := newTestService(t, nil)

	running := &domain.ReportRef{ID: "7", State: domain.ReportStateRunning}

	m.client.EXPECT().
		LatestReport(gomock.Any(), "92112").
		Return(running, nil).
		Times(10)

	err := service.WaitForReport(context.Background(), "92112")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJobTimedOut)
}

func TestService_WaitForReport_ErrorsConsumeAttempts(t *testing.T) {
	service, m := newTestService(t, nil)

	m.client.EXPECT().
		LatestReport(gomock.Any(), "92112").
		Return(nil, errors.New("status check failed")).
		Times(10)

	err := service.WaitForReport(context.Background(), "92112")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJobTimedOut)
}

func TestService_WaitForReport_StopsOnCancelledContext(t *testing.T) {
	service, m := newTestService(t, func(cfg *config.Config) {
		cfg.Report.PollIntervalSeconds = 60
	})

	ctx, cancel := context.WithCancel(context.Background())

	m.client.EXPECT().
		LatestReport(gomock.Any(), "92112").
		DoAndReturn(func(context.Context, string) (*domain.ReportRef, error) {
			cancel()
			return nil, nil
		})

	err := service.WaitForReport(ctx, "92112")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_WaitForReport_AbortsOnFailedGeneration(t *testing.T) {
	service, m := newTestService(t, nil)

	failed := &domain.ReportRef{ID: "7", State: domain.ReportStateFailed}

	m.client.EXPECT().
		LatestReport(gomock.Any(), "92112").
		Return(failed, nil)

	err := service.WaitForReport(context.Background(), "92112")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReportGenerationFailed)
	assert.NotErrorIs(t, err, ErrJobTimedOut)
}

func TestService_GetReportData_FoundAfterRetries(t *testing.T) {
	service, m := newTestService(t, nil)

	ref := domain.ReportRef{ID: "7", State: domain.ReportStateDone, StoragePath: "https://storage/report.csv"}

	gomock.InOrder(
		m.client.EXPECT().ListReports(gomock.Any(), "92112").Return([]domain.ReportRef{}, nil),
		m.client.EXPECT().ListReports(gomock.Any(), "92112").Return([]domain.ReportRef{ref}, nil),
	)

	m.client.EXPECT().
		DownloadReport(gomock.Any(), "https://storage/report.csv").
		Return(io.NopCloser(strings.NewReader("date,clicks\n2024-01-01,5\n")), nil)

	m.runs.EXPECT().
		SetArtifact(gomock.Any(), "92112", "https://storage/report.csv").
		Return(nil)

	table, err := service.GetReportData(context.Background(), "92112")

	require.NoError(t, err)
	assert.Equal(t, []string{"date", "clicks"}, table.Columns)
	assert.Equal(t, [][]string{{"2024-01-01", "5"}}, table.Rows)
}

func TestService_GetReportData_PicksLatestReport(t *testing.T) {
	service, m := newTestService(t, nil)

	refs := []domain.ReportRef{
		{ID: "6", State: domain.ReportStateDone, StoragePath: "https://storage/old.csv"},
		{ID: "7", State: domain.ReportStateDone, StoragePath: "https://storage/new.csv"},
	}

	m.client.EXPECT().
		ListReports(gomock.Any(), "92112").
		Return(refs, nil)

	m.client.EXPECT().
		DownloadReport(gomock.Any(), "https://storage/new.csv").
		Return(io.NopCloser(strings.NewReader("date\n2024-01-01\n")), nil)

	m.runs.EXPECT().
		SetArtifact(gomock.Any(), "92112", "https://storage/new.csv").
		Return(nil)

	_, err := service.GetReportData(context.Background(), "92112")

	assert.NoError(t, err)
}

func TestService_GetReportData_UnavailableAfterMaxRetries(t *testing.T) {
	service, m := newTestService(t, nil)

	m.client.EXPECT().
		ListReports(gomock.Any(), "92112").
		Return(nil, errors.New("listing failed")).
		Times(5)

	table, err := service.GetReportData(context.Background(), "92112")

	assert.Nil(t, table)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReportUnavailable)
}

func TestService_GetReportData_MissingLocationConsumesRetries(t *testing.T) {
	service, m := newTestService(t, nil)

	ref := domain.ReportRef{ID: "7", State: domain.ReportStateDone}

	m.client.EXPECT().
		ListReports(gomock.Any(), "92112").
		Return([]domain.ReportRef{ref}, nil).
		Times(5)

	_, err := service.GetReportData(context.Background(), "92112")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReportUnavailable)
}

func TestService_FetchReport(t *testing.T) {
	service, m := newTestService(t, nil)

	ref := &domain.ReportRef{ID: "7", State: domain.ReportStateDone, StoragePath: "https://storage/report.csv"}

	m.client.EXPECT().
		LatestReport(gomock.Any(), "92112").
		Return(ref, nil)

	m.client.EXPECT().
		DownloadReport(gomock.Any(), "https://storage/report.csv").
		Return(io.NopCloser(strings.NewReader("date,clicks\n2024-01-01,5\n")), nil)

	path := filepath.Join(t.TempDir(), "report.csv")

	err := service.FetchReport(context.Background(), "92112", path)

	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "date,clicks\n2024-01-01,5\n", string(content))
}

func TestService_FetchReport_NotReady(t *testing.T) {
	service, m := newTestService(t, nil)

	m.client.EXPECT().
		LatestReport(gomock.Any(), "92112").
		Return(nil, nil)

	err := service.FetchReport(context.Background(), "92112", filepath.Join(t.TempDir(), "report.csv"))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReportNotReady)
}

func TestService_Run_ResumesExistingJob(t *testing.T) {
	service, m := newTestService(t, func(cfg *config.Config) {
		cfg.Report.ResumeJobID = "555"
	})

	done := &domain.ReportRef{ID: "9", State: domain.ReportStateDone, StoragePath: "https://storage/report.csv"}

	m.client.EXPECT().
		LatestReport(gomock.Any(), "555").
		Return(done, nil)

	m.runs.EXPECT().
		UpdateStatus(gomock.Any(), "555", domain.RunStatusReady).
		Return(nil)

	m.client.EXPECT().
		ListReports(gomock.Any(), "555").
		Return([]domain.ReportRef{*done}, nil)

	m.client.EXPECT().
		DownloadReport(gomock.Any(), "https://storage/report.csv").
		Return(io.NopCloser(strings.NewReader("date,clicks\n2024-01-01,5\n")), nil)

	m.runs.EXPECT().
		SetArtifact(gomock.Any(), "555", "https://storage/report.csv").
		Return(nil)

	m.publisher.EXPECT().
		Publish(gomock.Any(), "spreadsheet-1", gomock.Any(), "Data").
		DoAndReturn(func(_ context.Context, _ string, table *domain.ReportTable, _ string) error {
			assert.Equal(t, []string{"date", "clicks"}, table.Columns)
			assert.Equal(t, 1, table.RowCount())
			return nil
		})

	m.runs.EXPECT().
		MarkPublished(gomock.Any(), "555", 1).
		Return(nil)

	err := service.Run(context.Background())

	assert.NoError(t, err)
}

func TestService_Run_LogsWithCorrelationID(t *testing.T) {
	hook := logrustest.NewGlobal()
	defer hook.Reset()

	service, m := newTestService(t, func(cfg *config.Config) {
		cfg.Report.ResumeJobID = "555"
	})

	done := &domain.ReportRef{ID: "9", State: domain.ReportStateDone, StoragePath: "https://storage/report.csv"}

	m.client.EXPECT().LatestReport(gomock.Any(), "555").Return(done, nil)
	m.runs.EXPECT().UpdateStatus(gomock.Any(), "555", domain.RunStatusReady).Return(nil)
	m.client.EXPECT().ListReports(gomock.Any(), "555").Return([]domain.ReportRef{*done}, nil)
	m.client.EXPECT().
		DownloadReport(gomock.Any(), "https://storage/report.csv").
		Return(io.NopCloser(strings.NewReader("date\n2024-01-01\n")), nil)
	m.runs.EXPECT().SetArtifact(gomock.Any(), "555", "https://storage/report.csv").Return(nil)
	m.publisher.EXPECT().Publish(gomock.Any(), "spreadsheet-1", gomock.Any(), "Data").Return(nil)
	m.runs.EXPECT().MarkPublished(gomock.Any(), "555", 1).Return(nil)

	require.NoError(t, service.Run(context.Background()))

	// Every workflow log line of the run carries the same correlation id.
	correlationIDs := map[string]bool{}
	for _, entry := range hook.AllEntries() {
		if !strings.HasPrefix(entry.Message, "sync:") {
			continue
		}

		correlationID, ok := entry.Data["correlation_id"].(string)
		require.True(t, ok, "entry %q is missing a correlation id", entry.Message)
		require.NotEmpty(t, correlationID)
		correlationIDs[correlationID] = true
	}

	assert.Len(t, correlationIDs, 1)
}

func TestService_Run_MarksRunFailedOnPublishError(t *testing.T) {
	service, m := newTestService(t, func(cfg *config.Config) {
		cfg.Report.ResumeJobID = "555"
	})

	done := &domain.ReportRef{ID: "9", State: domain.ReportStateDone, StoragePath: "https://storage/report.csv"}

	m.client.EXPECT().LatestReport(gomock.Any(), "555").Return(done, nil)
	m.runs.EXPECT().UpdateStatus(gomock.Any(), "555", domain.RunStatusReady).Return(nil)
	m.client.EXPECT().ListReports(gomock.Any(), "555").Return([]domain.ReportRef{*done}, nil)
	m.client.EXPECT().
		DownloadReport(gomock.Any(), "https://storage/report.csv").
		Return(io.NopCloser(strings.NewReader("date\n2024-01-01\n")), nil)
	m.runs.EXPECT().SetArtifact(gomock.Any(), "555", "https://storage/report.csv").Return(nil)

	m.publisher.EXPECT().
		Publish(gomock.Any(), "spreadsheet-1", gomock.Any(), "Data").
		Return(errors.New("write rejected"))

	m.runs.EXPECT().
		UpdateStatus(gomock.Any(), "555", domain.RunStatusFailed).
		Return(nil)

	err := service.Run(context.Background())

	require.Error(t, err)

	var tagged *Error
	require.ErrorAs(t, err, &tagged)
	assert.Equal(t, "publish", tagged.Op)
}
