package bidmanager

import (
	"context"
	"fmt"

	"google.golang.org/api/doubleclickbidmanager/v2"

	"github.com/vfg2006/dv360-sheets-sync/internal/domain"
	"github.com/vfg2006/dv360-sheets-sync/pkg/log"
)

const (
	queryTypeStandard = "STANDARD"
	filterAdvertiser  = "FILTER_ADVERTISER"
	filterMediaPlan   = "FILTER_MEDIA_PLAN"
)

func (c *BidManagerClient) CreateQuery(ctx context.Context, req domain.ReportRequest) (string, error) {
	query, err := c.service.Queries.Create(buildQuery(req)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create query: %w", err)
	}

	jobID := formatJobID(query.QueryId)

	log.ForContext(ctx).WithFields(log.Fields{
		"job_id": jobID,
		"title":  req.Title,
	}).Debug("bidmanager: query created")

	return jobID, nil
}

func (c *BidManagerClient) RunQuery(ctx context.Context, jobID string) error {
	queryID, err := parseJobID(jobID)
	if err != nil {
		return fmt.Errorf("invalid job identifier %q: %w", jobID, err)
	}

	report, err := c.service.Queries.Run(queryID, &doubleclickbidmanager.RunQueryRequest{}).
		Synchronous(false).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to run query %s: %w", jobID, err)
	}

	if report != nil && report.Key != nil {
		log.ForContext(ctx).WithFields(log.Fields{
			"job_id":    jobID,
			"report_id": report.Key.ReportId,
		}).Debug("bidmanager: query run started")
	}

	return nil
}

func (c *BidManagerClient) GetQuery(ctx context.Context, jobID string) (*domain.QueryInfo, error) {
	queryID, err := parseJobID(jobID)
	if err != nil {
		return nil, fmt.Errorf("invalid job identifier %q: %w", jobID, err)
	}

	query, err := c.service.Queries.Get(queryID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get query %s: %w", jobID, err)
	}

	info := &domain.QueryInfo{
		ID: formatJobID(query.QueryId),
	}

	if query.Metadata != nil {
		info.Title = query.Metadata.Title
	}

	return info, nil
}

// buildQuery maps the request descriptor onto the v2 wire shape.
func buildQuery(req domain.ReportRequest) *doubleclickbidmanager.Query {
	filters := []*doubleclickbidmanager.FilterPair{
		{Type: filterAdvertiser, Value: req.AdvertiserID},
	}

	if req.CampaignID != "" {
		filters = append(filters, &doubleclickbidmanager.FilterPair{
			Type:  filterMediaPlan,
			Value: req.CampaignID,
		})
	}

	return &doubleclickbidmanager.Query{
		Metadata: &doubleclickbidmanager.QueryMetadata{
			Title:     req.Title,
			Format:    req.Format,
			DataRange: &doubleclickbidmanager.DataRange{Range: req.DataRange},
		},
		Params: &doubleclickbidmanager.Parameters{
			Type:     queryTypeStandard,
			GroupBys: req.GroupBys,
			Filters:  filters,
			Metrics:  req.Metrics,
		},
		Schedule: &doubleclickbidmanager.QuerySchedule{
			Frequency: req.Frequency,
		},
	}
}
