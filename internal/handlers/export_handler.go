package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"alerts-service/internal/engine"
	"alerts-service/internal/middleware"
	"alerts-service/internal/models"
	"alerts-service/internal/repository"
)

// ExportHandler streams the current derived alert set as a file download
// for offline review. Supports CSV and Excel.
type ExportHandler struct {
	repo *repository.AlertRepository
}

func NewExportHandler(repo *repository.AlertRepository) *ExportHandler {
	return &ExportHandler{repo: repo}
}

var exportHeaders = []string{
	"Alert ID", "Kind", "Severity", "Product", "Quantity",
	"Threshold", "Expiry Date", "Days Until Expiry", "Raised At",
}

// ExportAlerts evaluates the branch and writes the ranked alert list in the
// requested format.
// GET /api/v1/alerts/export?format=csv|xlsx
func (h *ExportHandler) ExportAlerts(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)
	branchID := middleware.GetBranchID(c)

	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "format must be csv or xlsx",
			},
		})
		return
	}

	cfg, err := h.repo.LoadThresholds(c.Request.Context(), tenantID, branchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "SETTINGS_LOAD_FAILED",
				Message: "Failed to load alert settings",
			},
		})
		return
	}

	inventory, batches, err := h.repo.EvaluationInputs(tenantID, branchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to load inventory for evaluation",
			},
		})
		return
	}

	alerts, _ := engine.Aggregate(inventory, batches, cfg, time.Now())
	ranked := engine.Rank(alerts)

	filename := fmt.Sprintf("alerts_%s_%s", branchID, time.Now().Format("20060102_150405"))

	switch format {
	case "xlsx":
		h.writeExcel(c, ranked, filename)
	default:
		h.writeCSV(c, ranked, filename)
	}
}

func (h *ExportHandler) writeCSV(c *gin.Context, alerts []engine.Alert, filename string) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	if err := writer.Write(exportHeaders); err != nil {
		return
	}
	for _, a := range alerts {
		_ = writer.Write(exportRow(a))
	}
}

func (h *ExportHandler) writeExcel(c *gin.Context, alerts []engine.Alert, filename string) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Alerts"
	index, err := f.NewSheet(sheet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EXPORT_FAILED",
				Message: "Failed to create workbook",
			},
		})
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for rowIdx, a := range alerts {
		for colIdx, val := range exportRow(a) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheet, cell, val)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", filename))

	if err := f.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

func exportRow(a engine.Alert) []string {
	expiryDate := ""
	if a.ExpiryDate != nil {
		expiryDate = a.ExpiryDate.Format("2006-01-02")
	}
	daysUntil := ""
	if a.DaysUntilExpiry != nil {
		daysUntil = strconv.Itoa(*a.DaysUntilExpiry)
	}
	return []string{
		a.ID,
		string(a.Kind),
		string(a.Severity),
		a.SubjectLabel,
		strconv.Itoa(a.Quantity),
		strconv.Itoa(a.ThresholdUsed),
		expiryDate,
		daysUntil,
		a.CreatedAt.Format(time.RFC3339),
	}
}
