// internal/handler/blacklist.go
package handler

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"amorbot/internal/fleet"
	"amorbot/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
)

var saveBlacklistEntry = model.SaveBlacklistEntry

// persistBlacklistEntry writes one entry to the DB. A failed write means the
// entry survives only in memory and is lost on restart, so it must be logged.
func persistBlacklistEntry(e fleet.BlacklistEntry) {
	if err := saveBlacklistEntry(e); err != nil {
		log.Printf("[FLEET] Warning: failed to persist blacklist entry %s: %v", e.PartnerID, err)
	}
}

type addBlacklistRequest struct {
	PartnerID string `json:"partner_id"`
	Date      string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

// GET /api/blacklist?window=today,yesterday
// Default window is today+yesterday; window=all returns everything.
func ListBlacklist(blacklist *fleet.Blacklist) echo.HandlerFunc {
	return func(c echo.Context) error {
		windowParam := c.QueryParam("window")
		if windowParam == "all" {
			return SuccessResponse(c, http.StatusOK, "OK", blacklist.Entries())
		}

		now := time.Now()
		today := now.Format(fleet.BlacklistDateLayout)
		yesterday := now.AddDate(0, 0, -1).Format(fleet.BlacklistDateLayout)
		window := map[string]bool{today: true, yesterday: true}

		return SuccessResponse(c, http.StatusOK, "OK", blacklist.ListVisible(window))
	}
}

// POST /api/blacklist
func AddBlacklistEntry(blacklist *fleet.Blacklist) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req addBlacklistRequest
		if err := c.Bind(&req); err != nil {
			return ErrorResponse(c, http.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
		if req.PartnerID == "" {
			return ErrorResponse(c, http.StatusBadRequest, "Field 'partner_id' is required", "VALIDATION_ERROR", "")
		}

		date := req.Date
		if date == "" {
			date = time.Now().Format(fleet.BlacklistDateLayout)
		} else if _, err := time.Parse(fleet.BlacklistDateLayout, date); err != nil {
			return ErrorResponse(c, http.StatusBadRequest, "Date must be YYYY-MM-DD", "VALIDATION_ERROR", "")
		}

		blacklist.Insert(req.PartnerID, date)
		go persistBlacklistEntry(fleet.BlacklistEntry{PartnerID: req.PartnerID, Date: date})

		return SuccessResponse(c, http.StatusCreated, "Partner blacklisted", fleet.BlacklistEntry{
			PartnerID: req.PartnerID,
			Date:      date,
		})
	}
}

// GET /api/blacklist/export
func ExportBlacklist(blacklist *fleet.Blacklist) echo.HandlerFunc {
	return func(c echo.Context) error {
		entries := blacklist.Entries()

		f := excelize.NewFile()
		defer f.Close()

		sheetName := "Blacklist"
		index, err := f.NewSheet(sheetName)
		if err != nil {
			return ErrorResponse(c, 500, "Failed to create Excel sheet", "EXCEL_ERROR", err.Error())
		}

		headers := []string{"No", "Partner ID", "Date"}
		for i, header := range headers {
			cell := fmt.Sprintf("%c1", 'A'+i)
			f.SetCellValue(sheetName, cell, header)
		}

		headerStyle, _ := f.NewStyle(&excelize.Style{
			Font:      &excelize.Font{Bold: true},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		})
		f.SetCellStyle(sheetName, "A1", "C1", headerStyle)

		for i, e := range entries {
			row := i + 2
			f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), i+1)
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), e.PartnerID)
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), e.Date)
		}

		f.SetColWidth(sheetName, "A", "A", 5)
		f.SetColWidth(sheetName, "B", "B", 30)
		f.SetColWidth(sheetName, "C", "C", 12)

		f.SetActiveSheet(index)
		f.DeleteSheet("Sheet1")

		filename := fmt.Sprintf("blacklist_%s.xlsx", time.Now().Format("20060102"))
		c.Response().Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

		return f.Write(c.Response().Writer)
	}
}
