package handlers

import (
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/service/pipeline"
	"github.com/sape94/NIQ-sp-proj/internal/service/store"
	"github.com/sape94/NIQ-sp-proj/internal/service/structure"
)

// Response codes.
const (
	CodeOK             = 0
	CodeNoFile         = 1001
	CodeBadFile        = 1002
	CodeFileTooLarge   = 1003
	CodeSchema         = 2001
	CodeDataType       = 2002
	CodeParameter      = 2003
	CodeLookup         = 2004
	CodeEmptyUniverse  = 2005
	CodeExportFailed   = 3001
	CodeExportNotFound = 3002
	CodeNotFound       = 4004
	CodeInternal       = 5000
)

// MaxUploadSize limits uploaded universes to 32MB.
const MaxUploadSize = 32 << 20

// Handlers API handlers
type Handlers struct {
	universes  *store.MemoryStore
	tables     *store.MemoryStore
	exports    *store.ExportStore
	pipeline   *pipeline.Pipeline
	summarizer *structure.Summarizer
	sampling   model.SamplingParams
	seed       int64
	logger     *zap.Logger
}

// Options handler dependencies and defaults
type Options struct {
	Universes *store.MemoryStore
	// Tables caches raw uploads stratified by caller-chosen columns.
	Tables  *store.MemoryStore
	Exports *store.ExportStore
	// Sampling fills sample-size parameters a request leaves out.
	Sampling model.SamplingParams
	// Seed feeds random draws that do not carry their own seed. 0 seeds from the clock.
	Seed   int64
	Logger *zap.Logger
}

// NewHandlers creates handlers.
func NewHandlers(opts Options) *Handlers {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	universes := opts.Universes
	if universes == nil {
		universes = store.NewMemoryStore(0)
	}
	tables := opts.Tables
	if tables == nil {
		tables = store.NewMemoryStore(0)
	}
	exports := opts.Exports
	if exports == nil {
		exports = store.NewExportStore(30 * time.Minute)
	}
	sampling := opts.Sampling
	if sampling == (model.SamplingParams{}) {
		sampling = model.DefaultSamplingParams()
	}
	return &Handlers{
		universes:  universes,
		tables:     tables,
		exports:    exports,
		pipeline:   pipeline.New(logger),
		summarizer: structure.NewSummarizer(logger),
		sampling:   sampling,
		seed:       opts.Seed,
		logger:     logger,
	}
}

// RegisterRoutes mounts every route on router.
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/columns", h.GetColumns)
	router.GET("/players-help", h.GetPlayersHelp)
	router.GET("/sample-size", h.GetSampleSize)

	router.POST("/universes", h.UploadUniverse)
	router.GET("/universes", h.ListUniverses)
	router.GET("/universes/:id", h.GetUniverse)
	router.DELETE("/universes/:id", h.DeleteUniverse)
	router.GET("/universes/:id/structure", h.GetStructure)
	router.GET("/universes/:id/structure/sizes", h.GetStructureSizes)
	router.POST("/universes/:id/design", h.Design)
	router.POST("/universes/:id/random", h.RandomSample)
	router.POST("/universes/:id/export", h.Export)

	router.POST("/tables", h.UploadTable)
	router.GET("/tables", h.ListTables)
	router.GET("/tables/:id", h.GetTable)
	router.DELETE("/tables/:id", h.DeleteTable)
	router.GET("/tables/:id/sizes", h.GetTableSizes)
	router.GET("/tables/:id/quota-sizes", h.GetQuotaSizes)
	router.POST("/tables/:id/random", h.RandomTableSample)
	router.POST("/tables/:id/export", h.ExportTable)

	router.GET("/exports/:token", h.Download)
}

// Response common response envelope
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeOK,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

func errorWithData(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// codeFor maps an error to its response code.
func codeFor(err error) int {
	var (
		schemaErr *model.SchemaError
		typeErr   *model.DataTypeError
		paramErr  *model.ParameterError
		lookupErr *model.LookupError
	)
	switch {
	case errors.As(err, &schemaErr):
		return CodeSchema
	case errors.As(err, &typeErr):
		return CodeDataType
	case errors.As(err, &paramErr):
		return CodeParameter
	case errors.As(err, &lookupErr):
		return CodeLookup
	case errors.Is(err, model.ErrEmptyUniverse):
		return CodeEmptyUniverse
	case errors.Is(err, store.ErrUniverseNotFound):
		return CodeNotFound
	}
	return CodeInternal
}

// fail writes err with its mapped code. Schema errors carry the missing
// columns and, for hierarchy columns, the players help table.
func (h *Handlers) fail(c *gin.Context, err error) {
	code := codeFor(err)
	if code == CodeInternal {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		h.logger.Warn("request rejected", zap.String("path", c.FullPath()), zap.Int("code", code), zap.Error(err))
	}

	var schemaErr *model.SchemaError
	if errors.As(err, &schemaErr) {
		data := gin.H{"missing": schemaErr.Missing}
		if schemaErr.PlayerHint {
			data["playersHelp"] = model.PlayersHelp()
		}
		errorWithData(c, code, err.Error(), data)
		return
	}
	errorResponse(c, code, err.Error())
}

// universe resolves the :id path parameter.
func (h *Handlers) universe(c *gin.Context) (*store.Entry, bool) {
	entry, err := h.universes.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return entry, true
}

// rng returns a fresh random source. A non-nil seed wins over the default.
func (h *Handlers) rng(seed *int64) (*rand.Rand, int64) {
	s := h.seed
	if seed != nil {
		s = *seed
	}
	if s == 0 {
		s = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(s)), s
}
