package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"catalog-service/internal/importer"
	"catalog-service/internal/models"
)

// MaxUploadBytes caps the accepted spreadsheet size.
const MaxUploadBytes = 10 << 20

var allowedUploadMIMEs = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-excel": true,
}

// ImportService is the pipeline surface the handler needs.
type ImportService interface {
	Import(ctx context.Context, data []byte, authorization string) (*models.ImportSummary, error)
}

type ImportHandler struct {
	service ImportService
	logger  *logrus.Logger
}

func NewImportHandler(service ImportService, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{service: service, logger: logger}
}

// BulkUpload processes an uploaded spreadsheet and creates products
// POST /api/v1/products/bulk-upload
func (h *ImportHandler) BulkUpload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.Error{Code: "MISSING_FILE", Message: "A spreadsheet file is required in the 'file' form field"},
		})
		return
	}
	defer file.Close()

	if header.Size > MaxUploadBytes {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.Error{Code: "FILE_TOO_LARGE", Message: "Uploaded file exceeds the 10MB limit"},
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xlsx" && ext != ".xls" && !allowedUploadMIMEs[header.Header.Get("Content-Type")] {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.Error{Code: "UNSUPPORTED_FILE_TYPE", Message: "Only .xlsx and .xls spreadsheets are accepted"},
		})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.Error{Code: "UNREADABLE_FILE", Message: "Could not read the uploaded file"},
		})
		return
	}
	if len(data) > MaxUploadBytes {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.Error{Code: "FILE_TOO_LARGE", Message: "Uploaded file exceeds the 10MB limit"},
		})
		return
	}

	summary, err := h.service.Import(c.Request.Context(), data, c.GetHeader("Authorization"))
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrHeaderMismatch):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.Error{Code: "HEADER_MISMATCH", Message: err.Error()},
			})
		case errors.Is(err, importer.ErrInvalidDocument):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.Error{Code: "INVALID_DOCUMENT", Message: err.Error()},
			})
		default:
			h.logger.WithError(err).Error("Bulk upload failed")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: models.Error{Code: "IMPORT_FAILED", Message: "Bulk upload could not be processed"},
			})
		}
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: summary})
}

// GetImportTemplate downloads an empty spreadsheet with the expected header
// GET /api/v1/products/bulk-upload/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, name := range models.ImportColumns() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, name)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
		f.SetColWidth(sheetName, string(rune('A'+i)), string(rune('A'+i)), 18)
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=products_bulk_upload_template.xlsx")

	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to stream import template")
	}
}
