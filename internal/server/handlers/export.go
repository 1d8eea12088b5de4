package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/service/excel"
	"github.com/sape94/NIQ-sp-proj/internal/service/samplesize"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

// Export kinds.
const (
	ExportStructure = "structure"
	ExportDesign    = "design"
	ExportRandom    = "random"
	ExportSizes     = "sizes"
)

type exportRequest struct {
	Kind   string              `json:"kind"`
	Design *model.DesignParams `json:"design"`
	Random *randomRequest      `json:"random"`
	// Grouping and Sampling drive sizes exports.
	Grouping string                `json:"grouping"`
	Sampling *model.SamplingParams `json:"sampling"`
}

// Export computes the requested tables and registers them for download.
func (h *Handlers) Export(c *gin.Context) {
	entry, ok := h.universe(c)
	if !ok {
		return
	}

	var req exportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, CodeParameter, "invalid export request: "+err.Error())
			return
		}
	}
	req.Kind = strings.ToLower(strings.TrimSpace(req.Kind))
	if req.Kind == "" {
		req.Kind = ExportStructure
	}

	var sheets []*table.Sheet
	switch req.Kind {
	case ExportStructure:
		result, err := h.summarizer.Universe(entry.Stores)
		if err != nil {
			h.fail(c, err)
			return
		}
		for _, g := range model.Groupings {
			sheets = append(sheets, excel.StratumSheet(g.Title()+" Structure", g, result.View(g)))
		}
	case ExportDesign:
		if req.Design == nil {
			h.fail(c, &model.ParameterError{Name: "design", Value: nil, Accepted: "design parameters"})
			return
		}
		result, err := h.pipeline.Run(entry.Stores, *req.Design)
		if err != nil {
			h.fail(c, err)
			return
		}
		sheets = excel.DesignSheets(result)
	case ExportRandom:
		rr := randomRequest{}
		if req.Random != nil {
			rr = *req.Random
		}
		res, err := h.draw(entry.Stores, rr)
		if err != nil {
			h.fail(c, err)
			return
		}
		sheets = append(sheets, excel.StoreSheet("Sample", res.Stores))
		if len(res.Allocations) > 0 {
			sheets = append(sheets, excel.AllocationSheet("Allocation", res.Allocations))
		}
	case ExportSizes:
		sheet, err := h.sizesSheet(entry.Stores, req)
		if err != nil {
			h.fail(c, err)
			return
		}
		sheets = append(sheets, sheet)
	default:
		h.fail(c, &model.ParameterError{Name: "kind", Value: req.Kind, Accepted: "structure, design, random, sizes"})
		return
	}

	h.register(c, req.Kind, sheets)
}

// register stores sheets for download and responds with the token.
func (h *Handlers) register(c *gin.Context, kind string, sheets []*table.Sheet) {
	token := h.exports.Put(kind, sheets)
	names := make([]string, 0, len(sheets))
	for _, s := range sheets {
		names = append(names, s.Name)
	}
	h.logger.Debug("export registered", zap.String("kind", kind), zap.Int("sheets", len(sheets)))
	success(c, gin.H{
		"token":       token,
		"sheets":      names,
		"downloadUrl": fmt.Sprintf("/api/exports/%s", token),
	})
}

func (h *Handlers) sizesSheet(stores []model.Store, req exportRequest) (*table.Sheet, error) {
	grouping := model.GroupingCity
	if req.Grouping != "" {
		g, err := model.ParseGrouping(req.Grouping)
		if err != nil {
			return nil, err
		}
		grouping = g
	}
	params := h.sampling
	if req.Sampling != nil {
		params = *req.Sampling
	}

	rows, err := h.summarizer.Summarize(stores, grouping)
	if err != nil {
		return nil, err
	}
	sizes, _, err := samplesize.StructureSizes(rows, params)
	if err != nil {
		return nil, err
	}
	return excel.StructureSizeSheet("Sample Sizes", grouping, sizes), nil
}

// Download streams a registered export as an .xlsx workbook, or one sheet of
// it as CSV with ?format=csv&sheet=.
func (h *Handlers) Download(c *gin.Context) {
	exp, ok := h.exports.Get(c.Param("token"))
	if !ok {
		errorResponse(c, CodeExportNotFound, "export not found or expired")
		return
	}

	var buf bytes.Buffer
	switch format := strings.ToLower(c.DefaultQuery("format", "xlsx")); format {
	case "xlsx":
		if err := excel.WriteWorkbook(&buf, exp.Sheets...); err != nil {
			h.logger.Error("export failed", zap.Error(err))
			errorResponse(c, CodeExportFailed, "export failed")
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", exp.Name))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	case "csv":
		sheet, found := exp.Sheet(c.Query("sheet"))
		if !found {
			errorResponse(c, CodeExportNotFound, "sheet not found")
			return
		}
		if err := excel.WriteCSV(&buf, sheet); err != nil {
			h.logger.Error("export failed", zap.Error(err))
			errorResponse(c, CodeExportFailed, "export failed")
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", exp.Name))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	default:
		h.fail(c, &model.ParameterError{Name: "format", Value: format, Accepted: "xlsx, csv"})
	}
}
