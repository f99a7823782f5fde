package spreadsheet

import (
	"context"
	"fmt"

	"google.golang.org/api/sheets/v4"

	"github.com/vfg2006/dv360-sheets-sync/internal/domain"
	"github.com/vfg2006/dv360-sheets-sync/pkg/log"
)

// clearRange bounds the rectangle wiped before each write; content outside
// it is untouched.
const clearRange = "A1:ZZ"

// Publisher replaces a worksheet's contents with tabular report data,
// creating the worksheet when it does not exist yet.
type Publisher interface {
	Publish(ctx context.Context, spreadsheetID string, table *domain.ReportTable, sheetName string) error
}

type SheetPublisher struct {
	service *sheets.Service
}

func NewPublisher(service *sheets.Service) Publisher {
	return &SheetPublisher{
		service: service,
	}
}

func (p *SheetPublisher) Publish(ctx context.Context, spreadsheetID string, table *domain.ReportTable, sheetName string) error {
	if err := p.ensureSheet(ctx, spreadsheetID, sheetName); err != nil {
		return err
	}

	// Clear first so rows beyond the new data do not survive the write.
	clear := fmt.Sprintf("%s!%s", sheetName, clearRange)
	if _, err := p.service.Spreadsheets.Values.
		Clear(spreadsheetID, clear, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("failed to clear range %s: %w", clear, err)
	}

	body := &sheets.ValueRange{
		Values: valueGrid(table),
	}

	result, err := p.service.Spreadsheets.Values.
		Update(spreadsheetID, fmt.Sprintf("%s!A1", sheetName), body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write values to sheet %s: %w", sheetName, err)
	}

	log.ForContext(ctx).WithFields(log.Fields{
		"sheet":         sheetName,
		"updated_cells": result.UpdatedCells,
		"rows":          table.RowCount(),
	}).Info("spreadsheet: sheet updated")

	return nil
}

// ensureSheet creates the worksheet when no sheet with the target title
// exists in the spreadsheet.
func (p *SheetPublisher) ensureSheet(ctx context.Context, spreadsheetID, sheetName string) error {
	spreadsheet, err := p.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to fetch spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			return nil
		}
	}

	log.ForContext(ctx).WithField("sheet", sheetName).Info("spreadsheet: creating missing sheet")

	request := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{
						Title: sheetName,
					},
				},
			},
		},
	}

	if _, err := p.service.Spreadsheets.
		BatchUpdate(spreadsheetID, request).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetName, err)
	}

	return nil
}

// valueGrid builds the row-major grid: header row first, data rows after,
// column order preserved.
func valueGrid(table *domain.ReportTable) [][]interface{} {
	values := make([][]interface{}, 0, len(table.Rows)+1)

	header := make([]interface{}, len(table.Columns))
	for i, column := range table.Columns {
		header[i] = column
	}
	values = append(values, header)

	for _, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		values = append(values, cells)
	}

	return values
}
