// Package gsheets appends one row per submission to a Google spreadsheet.
package gsheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// API is the subset of the Sheets v4 client used by the appender.
type API interface {
	FirstSheetID(ctx context.Context, spreadsheetID string) (int64, error)
	PrepareSheet(ctx context.Context, spreadsheetID string, sheetID int64, title string) error
	WriteRow(ctx context.Context, spreadsheetID, rng string, row []string) error
	AppendRow(ctx context.Context, spreadsheetID, rng string, row []string) error
}

type Service struct {
	svc *sheets.Service
}

func NewService(ctx context.Context, opts ...option.ClientOption) (*Service, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Service{svc: svc}, nil
}

func valueRange(row []string) *sheets.ValueRange {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return &sheets.ValueRange{Values: [][]interface{}{cells}}
}

func (s *Service) FirstSheetID(ctx context.Context, spreadsheetID string) (int64, error) {
	ss, err := s.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet %s: %w", spreadsheetID, err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return 0, fmt.Errorf("spreadsheet %s has no sheets", spreadsheetID)
	}
	return ss.Sheets[0].Properties.SheetId, nil
}

// PrepareSheet renames the sheet, styles the header row and freezes it.
func (s *Service) PrepareSheet(ctx context.Context, spreadsheetID string, sheetID int64, title string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:         sheetID,
						Title:           title,
						ForceSendFields: []string{"SheetId"},
					},
					Fields: "title",
				},
			},
			{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{
						SheetId:         sheetID,
						StartRowIndex:   0,
						EndRowIndex:     1,
						ForceSendFields: []string{"SheetId", "StartRowIndex"},
					},
					Cell: &sheets.CellData{
						UserEnteredFormat: &sheets.CellFormat{
							BackgroundColor: &sheets.Color{Red: 0.2, Green: 0.2, Blue: 0.2},
							TextFormat: &sheets.TextFormat{
								Bold:            true,
								ForegroundColor: &sheets.Color{Red: 1, Green: 1, Blue: 1},
							},
						},
					},
					Fields: "userEnteredFormat(backgroundColor,textFormat)",
				},
			},
			{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:         sheetID,
						GridProperties:  &sheets.GridProperties{FrozenRowCount: 1},
						ForceSendFields: []string{"SheetId"},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
		},
	}

	if _, err := s.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("prepare sheet %s: %w", spreadsheetID, err)
	}
	return nil
}

func (s *Service) WriteRow(ctx context.Context, spreadsheetID, rng string, row []string) error {
	_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, rng, valueRange(row)).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}
	return nil
}

func (s *Service) AppendRow(ctx context.Context, spreadsheetID, rng string, row []string) error {
	_, err := s.svc.Spreadsheets.Values.Append(spreadsheetID, rng, valueRange(row)).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", rng, err)
	}
	return nil
}
