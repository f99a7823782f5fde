package domain

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// Report request defaults. Group-bys and metrics follow the Bid Manager v2
// naming; the set is fixed by the sync workflow and not user-configurable.
var (
	DefaultGroupBys = []string{
		"FILTER_ADVERTISER",
		"FILTER_ADVERTISER_NAME",
		"FILTER_INSERTION_ORDER",
		"FILTER_INSERTION_ORDER_NAME",
		"FILTER_LINE_ITEM",
		"FILTER_LINE_ITEM_NAME",
	}

	DefaultMetrics = []string{
		"METRIC_IMPRESSIONS",
		"METRIC_CLICKS",
		"METRIC_TOTAL_CONVERSIONS",
		"METRIC_REVENUE_ADVERTISER",
		"METRIC_MEDIA_COST_ADVERTISER",
	}
)

const (
	DataRangeLast7Days = "LAST_7_DAYS"
	FormatCSV          = "CSV"
	FrequencyOneTime   = "ONE_TIME"
)

// ReportRequest is the descriptor submitted to the reporting API. It is
// immutable once submitted; the submitted copy is persisted with the run.
type ReportRequest struct {
	Title        string   `json:"title"`
	AdvertiserID string   `json:"advertiser_id"`
	CampaignID   string   `json:"campaign_id,omitempty"`
	DataRange    string   `json:"data_range"`
	Format       string   `json:"format"`
	Frequency    string   `json:"frequency"`
	GroupBys     []string `json:"group_bys"`
	Metrics      []string `json:"metrics"`
}

// NewReportRequest builds the fixed-shape descriptor for a one-time CSV
// report over the most recent 7 days, titled after the given date.
func NewReportRequest(advertiserID, campaignID string, now time.Time) ReportRequest {
	return ReportRequest{
		Title:        fmt.Sprintf("DV360 Report %s", now.Format("20060102")),
		AdvertiserID: advertiserID,
		CampaignID:   campaignID,
		DataRange:    DataRangeLast7Days,
		Format:       FormatCSV,
		Frequency:    FrequencyOneTime,
		GroupBys:     DefaultGroupBys,
		Metrics:      DefaultMetrics,
	}
}

// QueryInfo is the metadata returned by the job read-back.
type QueryInfo struct {
	ID    string
	Title string
}

// ReportState is the generation state reported for a produced artifact.
type ReportState string

const (
	ReportStateRunning ReportState = "RUNNING"
	ReportStateDone    ReportState = "DONE"
	ReportStateFailed  ReportState = "FAILED"
)

// ReportRef points at a produced report artifact. Only the latest reference
// for a job matters; older ones are discarded by the callers.
type ReportRef struct {
	ID          string
	State       ReportState
	StoragePath string
}

// Running reports whether the artifact is still being generated.
func (r ReportRef) Running() bool {
	return r.State == ReportStateRunning
}

// ReportTable is the parsed contents of a downloaded report artifact:
// an ordered header and rows aligned to it. Column order from the source
// artifact is preserved through to the sheet write.
type ReportTable struct {
	Columns []string
	Rows    [][]string
}

// RowCount returns the number of data rows, excluding the header.
func (t *ReportTable) RowCount() int {
	return len(t.Rows)
}

// ParseReportCSV parses comma-separated report content. The first record is
// the header; remaining records are data rows. Records are kept as-is, with
// no value transformation.
func ParseReportCSV(r io.Reader) (*ReportTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("report is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report header: %w", err)
	}

	table := &ReportTable{
		Columns: header,
		Rows:    [][]string{},
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read report row %d: %w", len(table.Rows)+1, err)
		}

		table.Rows = append(table.Rows, record)
	}

	return table, nil
}
