package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/service/excel"
	"github.com/sape94/NIQ-sp-proj/internal/service/samplesize"
	"github.com/sape94/NIQ-sp-proj/internal/service/selection"
	"github.com/sape94/NIQ-sp-proj/internal/service/store"
	"github.com/sape94/NIQ-sp-proj/internal/service/tabular"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

// ExportQuota exports quota sample sizes of a raw table.
const ExportQuota = "quota"

type tableInfo struct {
	ID             string     `json:"id"`
	Filename       string     `json:"filename"`
	UploadedAt     string     `json:"uploadedAt"`
	Sheet          string     `json:"sheet"`
	Columns        []string   `json:"columns"`
	NumericColumns []string   `json:"numericColumns"`
	Rows           int        `json:"rows"`
	Preview        [][]string `json:"preview,omitempty"`
}

func tableInfoOf(e *store.Entry, preview bool) tableInfo {
	info := tableInfo{
		ID:             e.ID,
		Filename:       e.Filename,
		UploadedAt:     e.UploadedAt.Format(time.RFC3339),
		Sheet:          e.Table.Name,
		Columns:        e.Table.Columns,
		NumericColumns: tabular.NumericColumns(e.Table, nil),
		Rows:           e.Table.Len(),
	}
	if preview {
		n := previewRows
		if e.Table.Len() < n {
			n = e.Table.Len()
		}
		info.Preview = e.Table.Rows[:n]
	}
	return info
}

// rawTable resolves the :id path parameter against the table cache.
func (h *Handlers) rawTable(c *gin.Context) (*store.Entry, bool) {
	entry, err := h.tables.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return entry, true
}

// UploadTable caches an uploaded .xlsx or .csv as is. Unlike universes, no
// column is required; designs name the columns they use.
func (h *Handlers) UploadTable(c *gin.Context) {
	raw, filename, ok := h.readUpload(c)
	if !ok {
		return
	}

	entry := h.tables.PutTable(filename, raw)
	h.logger.Info("table uploaded",
		zap.String("id", entry.ID),
		zap.String("filename", filename),
		zap.Int("rows", raw.Len()),
		zap.Int("columns", len(raw.Columns)),
	)
	success(c, tableInfoOf(entry, true))
}

// ListTables lists cached tables, newest first.
func (h *Handlers) ListTables(c *gin.Context) {
	entries := h.tables.List()
	result := make([]tableInfo, 0, len(entries))
	for _, e := range entries {
		result = append(result, tableInfoOf(e, false))
	}
	success(c, result)
}

// GetTable returns one cached table with a preview.
func (h *Handlers) GetTable(c *gin.Context) {
	entry, ok := h.rawTable(c)
	if !ok {
		return
	}
	success(c, tableInfoOf(entry, true))
}

// DeleteTable drops a cached table.
func (h *Handlers) DeleteTable(c *gin.Context) {
	entry, ok := h.rawTable(c)
	if !ok {
		return
	}
	h.tables.Delete(entry.ID)
	success(c, nil)
}

// splitList splits a comma-separated query value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// designFromQuery reads ?id=&columns=&feature=&value=.
func designFromQuery(c *gin.Context) tabular.Design {
	return tabular.Design{
		IDColumn:      c.Query("id"),
		Columns:       splitList(c.Query("columns")),
		FeatureColumn: c.Query("feature"),
		FeatureValue:  c.Query("value"),
	}
}

// GetTableSizes computes regular and weighted sample sizes for every stratum
// of the ?columns= design.
func (h *Handlers) GetTableSizes(c *gin.Context) {
	entry, ok := h.rawTable(c)
	if !ok {
		return
	}
	params, err := h.samplingFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	d := designFromQuery(c)
	sizes, universeSize, err := tabular.StructureSizes(entry.Table, d, params)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{
		"design":       d,
		"params":       params,
		"universeSize": universeSize,
		"strata":       sizes,
	})
}

type sheetResponse struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// GetQuotaSizes adds weight and sample size columns after every numeric
// column outside ?quota=.
func (h *Handlers) GetQuotaSizes(c *gin.Context) {
	entry, ok := h.rawTable(c)
	if !ok {
		return
	}
	params, err := h.samplingFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	sheet, err := tabular.QuotaSizes(entry.Table, splitList(c.Query("quota")), params)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, sheetResponse{Name: sheet.Name, Columns: sheet.Columns, Rows: sheet.Rows})
}

type tableRandomRequest struct {
	// N is the sample size. When absent the required sample size is used.
	N *int `json:"n"`
	// Design stratifies the draw when set.
	Design   *tabular.Design       `json:"design"`
	Seed     *int64                `json:"seed"`
	Sampling *model.SamplingParams `json:"sampling"`
}

type tableSampleResponse struct {
	Seed int64 `json:"seed"`
	*selection.TableSample
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// drawRows runs a simple or stratified draw over a raw table.
func (h *Handlers) drawRows(sheet *table.Sheet, req tableRandomRequest) (*tableSampleResponse, error) {
	params := h.sampling
	if req.Sampling != nil {
		params = *req.Sampling
	}

	rng, seed := h.rng(req.Seed)
	sampler := selection.NewSampler(rng, h.logger)

	var (
		res *selection.TableSample
		err error
	)
	if req.Design != nil {
		n := -1
		if req.N != nil {
			n = *req.N
		}
		res, err = sampler.StratifiedRows(sheet, *req.Design, n, params)
	} else {
		n := 0
		if req.N != nil {
			n = *req.N
		} else if n, err = samplesize.RequiredSampleSize(sheet.Len(), params); err != nil {
			return nil, err
		}
		res, err = sampler.SimpleRows(sheet, n)
	}
	if err != nil {
		return nil, err
	}
	return &tableSampleResponse{Seed: seed, TableSample: res, Columns: res.Sheet.Columns, Rows: res.Sheet.Rows}, nil
}

// RandomTableSample draws a simple or column-stratified random sample of rows.
func (h *Handlers) RandomTableSample(c *gin.Context) {
	entry, ok := h.rawTable(c)
	if !ok {
		return
	}

	var req tableRandomRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, CodeParameter, "invalid random sampling request: "+err.Error())
			return
		}
	}

	res, err := h.drawRows(entry.Table, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, res)
}

type tableExportRequest struct {
	Kind   string              `json:"kind"`
	Random *tableRandomRequest `json:"random"`
	// Design drives sizes exports, Quota drives quota exports.
	Design   *tabular.Design       `json:"design"`
	Quota    []string              `json:"quota"`
	Sampling *model.SamplingParams `json:"sampling"`
}

// ExportTable computes the requested table results and registers them for
// download.
func (h *Handlers) ExportTable(c *gin.Context) {
	entry, ok := h.rawTable(c)
	if !ok {
		return
	}

	var req tableExportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, CodeParameter, "invalid export request: "+err.Error())
			return
		}
	}
	req.Kind = strings.ToLower(strings.TrimSpace(req.Kind))
	params := h.sampling
	if req.Sampling != nil {
		params = *req.Sampling
	}

	var sheets []*table.Sheet
	switch req.Kind {
	case ExportRandom:
		rr := tableRandomRequest{}
		if req.Random != nil {
			rr = *req.Random
		}
		res, err := h.drawRows(entry.Table, rr)
		if err != nil {
			h.fail(c, err)
			return
		}
		sheets = append(sheets, res.Sheet)
		if len(res.Allocations) > 0 {
			sheets = append(sheets, excel.AllocationSheet("Allocation", res.Allocations))
		}
	case ExportSizes:
		if req.Design == nil {
			h.fail(c, &model.ParameterError{Name: "design", Value: nil, Accepted: "a column design"})
			return
		}
		sizes, _, err := tabular.StructureSizes(entry.Table, *req.Design, params)
		if err != nil {
			h.fail(c, err)
			return
		}
		sheets = append(sheets, excel.TableSizeSheet("Sample Sizes", *req.Design, sizes))
	case ExportQuota:
		sheet, err := tabular.QuotaSizes(entry.Table, req.Quota, params)
		if err != nil {
			h.fail(c, err)
			return
		}
		sheets = append(sheets, sheet)
	default:
		h.fail(c, &model.ParameterError{Name: "kind", Value: req.Kind, Accepted: "random, sizes, quota"})
		return
	}

	h.register(c, req.Kind, sheets)
}
