package handlers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/service/excel"
	"github.com/sape94/NIQ-sp-proj/internal/service/store"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

const previewRows = 10

type universeInfo struct {
	ID         string         `json:"id"`
	Filename   string         `json:"filename"`
	UploadedAt string         `json:"uploadedAt"`
	Universe   model.Universe `json:"universe"`
	Preview    []model.Store  `json:"preview,omitempty"`
}

func infoOf(e *store.Entry, preview bool) universeInfo {
	info := universeInfo{
		ID:         e.ID,
		Filename:   e.Filename,
		UploadedAt: e.UploadedAt.Format(time.RFC3339),
		Universe:   model.UniverseOf(e.Stores),
	}
	if preview {
		n := previewRows
		if len(e.Stores) < n {
			n = len(e.Stores)
		}
		info.Preview = e.Stores[:n]
	}
	return info
}

// GetColumns lists the required universe columns.
func (h *Handlers) GetColumns(c *gin.Context) {
	success(c, model.RequiredColumns)
}

// GetPlayersHelp returns the player/subplayer example table.
func (h *Handlers) GetPlayersHelp(c *gin.Context) {
	success(c, model.PlayersHelp())
}

// readUpload reads the multipart "file" field as a sheet. Workbooks honour
// an optional "sheet" form field. It writes the error response itself.
func (h *Handlers) readUpload(c *gin.Context) (*table.Sheet, string, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		errorResponse(c, CodeNoFile, "file is required")
		return nil, "", false
	}
	defer file.Close()

	if header.Size > MaxUploadSize {
		errorResponse(c, CodeFileTooLarge, fmt.Sprintf("file too large, max %dMB", MaxUploadSize>>20))
		return nil, "", false
	}

	var raw *table.Sheet
	if name := c.PostForm("sheet"); name != "" && !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		raw, err = excel.ReadWorkbookSheet(file, name)
	} else {
		raw, err = excel.ReadSheet(file, header.Filename)
	}
	if err != nil {
		if errors.Is(err, model.ErrEmptyUniverse) {
			h.fail(c, err)
			return nil, "", false
		}
		errorResponse(c, CodeBadFile, err.Error())
		return nil, "", false
	}
	return raw, header.Filename, true
}

// UploadUniverse parses an uploaded .xlsx or .csv universe and caches it.
func (h *Handlers) UploadUniverse(c *gin.Context) {
	raw, filename, ok := h.readUpload(c)
	if !ok {
		return
	}

	stores, err := excel.ParseStores(raw)
	if err != nil {
		h.fail(c, err)
		return
	}

	entry := h.universes.Put(filename, stores)
	h.logger.Info("universe uploaded",
		zap.String("id", entry.ID),
		zap.String("filename", filename),
		zap.Int("stores", len(stores)),
	)
	success(c, infoOf(entry, true))
}

// ListUniverses lists cached uploads, newest first.
func (h *Handlers) ListUniverses(c *gin.Context) {
	entries := h.universes.List()
	result := make([]universeInfo, 0, len(entries))
	for _, e := range entries {
		result = append(result, infoOf(e, false))
	}
	success(c, result)
}

// GetUniverse returns one cached upload with a preview.
func (h *Handlers) GetUniverse(c *gin.Context) {
	entry, ok := h.universe(c)
	if !ok {
		return
	}
	success(c, infoOf(entry, true))
}

// DeleteUniverse drops a cached upload.
func (h *Handlers) DeleteUniverse(c *gin.Context) {
	entry, ok := h.universe(c)
	if !ok {
		return
	}
	h.universes.Delete(entry.ID)
	success(c, nil)
}

type summaryResponse struct {
	Grouping model.Grouping     `json:"grouping"`
	Columns  []string           `json:"columns"`
	Rows     []model.StratumRow `json:"rows"`
}

// GetStructure returns the full structure, or one summary when ?grouping= is set.
func (h *Handlers) GetStructure(c *gin.Context) {
	entry, ok := h.universe(c)
	if !ok {
		return
	}

	if g := c.Query("grouping"); g != "" {
		grouping, err := model.ParseGrouping(g)
		if err != nil {
			h.fail(c, err)
			return
		}
		rows, err := h.summarizer.Summarize(entry.Stores, grouping)
		if err != nil {
			h.fail(c, err)
			return
		}
		success(c, summaryResponse{
			Grouping: grouping,
			Columns:  excel.StratumSheet("", grouping, nil).Columns,
			Rows:     rows,
		})
		return
	}

	result, err := h.summarizer.Universe(entry.Stores)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, result)
}

// Design runs the full sample design over a cached universe.
func (h *Handlers) Design(c *gin.Context) {
	entry, ok := h.universe(c)
	if !ok {
		return
	}

	var params model.DesignParams
	if err := c.ShouldBindJSON(&params); err != nil {
		errorResponse(c, CodeParameter, "invalid design parameters: "+err.Error())
		return
	}

	result, err := h.pipeline.Run(entry.Stores, params)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, result)
}
