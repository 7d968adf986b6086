// internal/handler/event.go
package handler

import (
	"fmt"
	"net/http"
	"time"

	"amorbot/internal/fleet"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
)

// GET /api/events — the rendered buffer, newest first, with freshness
// computed against now.
func ListEvents(eventLog *fleet.EventLog) echo.HandlerFunc {
	return func(c echo.Context) error {
		return SuccessResponse(c, http.StatusOK, "OK", eventLog.Render(time.Now()))
	}
}

// POST /api/events — event ingestion from the site layer ("read inbox
// event" callback).
type addEventRequest struct {
	Kind        string `json:"kind"`
	SessionID   string `json:"session_id"`
	PartnerID   string `json:"partner_id,omitempty"`
	PartnerName string `json:"partner_name,omitempty"`
	Excerpt     string `json:"excerpt,omitempty"`
}

func AddEvent(reg *fleet.Registry, eventLog *fleet.EventLog) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req addEventRequest
		if err := c.Bind(&req); err != nil {
			return ErrorResponse(c, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
		if req.SessionID == "" || req.Kind == "" {
			return ErrorResponse(c, http.StatusBadRequest, "Fields 'session_id' and 'kind' are required", "VALIDATION_ERROR", "")
		}
		if _, err := reg.Get(req.SessionID); err != nil {
			return ErrorResponse(c, http.StatusNotFound, "Session not found", "SESSION_NOT_FOUND", "")
		}

		entry := eventLog.Record(fleet.EventKind(req.Kind), req.SessionID, req.PartnerID, req.PartnerName, req.Excerpt)
		return SuccessResponse(c, http.StatusCreated, "Event recorded", entry)
	}
}

// GET /api/events/export
func ExportEvents(eventLog *fleet.EventLog) echo.HandlerFunc {
	return func(c echo.Context) error {
		entries := eventLog.Entries()

		f := excelize.NewFile()
		defer f.Close()

		sheetName := "Events"
		index, err := f.NewSheet(sheetName)
		if err != nil {
			return ErrorResponse(c, 500, "Failed to create Excel sheet", "EXCEL_ERROR", err.Error())
		}

		headers := []string{"No", "Time", "Kind", "Session", "Partner ID", "Partner Name", "Excerpt"}
		for i, header := range headers {
			cell := fmt.Sprintf("%c1", 'A'+i)
			f.SetCellValue(sheetName, cell, header)
		}

		headerStyle, _ := f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		})
		f.SetCellStyle(sheetName, "A1", "G1", headerStyle)

		for i, e := range entries {
			row := i + 2
			f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), i+1)
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), e.At.Format(time.RFC3339))
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), string(e.Kind))
			f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), e.SessionID)
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), e.PartnerID)
			f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), e.PartnerName)
			f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), e.Excerpt)
		}

		f.SetColWidth(sheetName, "A", "A", 5)
		f.SetColWidth(sheetName, "B", "B", 22)
		f.SetColWidth(sheetName, "C", "C", 14)
		f.SetColWidth(sheetName, "D", "D", 38)
		f.SetColWidth(sheetName, "E", "F", 20)
		f.SetColWidth(sheetName, "G", "G", 50)

		f.SetActiveSheet(index)
		f.DeleteSheet("Sheet1")

		filename := fmt.Sprintf("events_%s.xlsx", time.Now().Format("20060102_150405"))
		c.Response().Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

		return f.Write(c.Response().Writer)
	}
}
