package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/service/samplesize"
	"github.com/sape94/NIQ-sp-proj/internal/service/selection"
)

// samplingFromQuery reads confidence, error and portion, falling back to the
// configured defaults.
func (h *Handlers) samplingFromQuery(c *gin.Context) (model.SamplingParams, error) {
	params := h.sampling
	if v := c.Query("confidence"); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil {
			return params, &model.ParameterError{Name: "confidence", Value: v, Accepted: "an integer percentage"}
		}
		params.ConfidenceLevel = level
	}
	if v := c.Query("error"); v != "" {
		e, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, &model.ParameterError{Name: "error", Value: v, Accepted: "a fraction in (0, 1]"}
		}
		params.StandardError = e
	}
	if v := c.Query("portion"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return params, &model.ParameterError{Name: "portion", Value: v, Accepted: "a fraction in [0, 1]"}
		}
		params.SamplePortion = p
	}
	return params, samplesize.Validate(params)
}

// GetSampleSize computes the required sample size for ?population=.
func (h *Handlers) GetSampleSize(c *gin.Context) {
	population, err := strconv.Atoi(c.Query("population"))
	if err != nil {
		h.fail(c, &model.ParameterError{Name: "population", Value: c.Query("population"), Accepted: "a non-negative integer"})
		return
	}
	params, err := h.samplingFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	n, err := samplesize.RequiredSampleSize(population, params)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{
		"population": population,
		"params":     params,
		"sampleSize": n,
	})
}

// GetStructureSizes computes regular and weighted sample sizes for every
// stratum of ?grouping= (city by default).
func (h *Handlers) GetStructureSizes(c *gin.Context) {
	entry, ok := h.universe(c)
	if !ok {
		return
	}
	grouping, err := model.ParseGrouping(c.DefaultQuery("grouping", string(model.GroupingCity)))
	if err != nil {
		h.fail(c, err)
		return
	}
	params, err := h.samplingFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	rows, err := h.summarizer.Summarize(entry.Stores, grouping)
	if err != nil {
		h.fail(c, err)
		return
	}
	sizes, universeSize, err := samplesize.StructureSizes(rows, params)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{
		"grouping":     grouping,
		"params":       params,
		"universeSize": universeSize,
		"strata":       sizes,
	})
}

type randomRequest struct {
	// N is the sample size. When absent the required sample size is used.
	N *int `json:"n"`
	// Grouping stratifies the draw when set.
	Grouping string                `json:"grouping"`
	Seed     *int64                `json:"seed"`
	Sampling *model.SamplingParams `json:"sampling"`
}

type randomResponse struct {
	Seed        int64                   `json:"seed"`
	SampleSize  int                     `json:"sampleSize"`
	Grouping    model.Grouping          `json:"grouping,omitempty"`
	Allocations []samplesize.Allocation `json:"allocations,omitempty"`
	Stores      []model.Store           `json:"stores"`
}

// draw runs a simple or stratified random draw described by req.
func (h *Handlers) draw(stores []model.Store, req randomRequest) (*randomResponse, error) {
	params := h.sampling
	if req.Sampling != nil {
		params = *req.Sampling
	}

	n := 0
	if req.N != nil {
		n = *req.N
	} else {
		var err error
		if n, err = samplesize.RequiredSampleSize(len(stores), params); err != nil {
			return nil, err
		}
	}

	rng, seed := h.rng(req.Seed)
	sampler := selection.NewSampler(rng, h.logger)

	if req.Grouping == "" {
		picked, err := sampler.Simple(stores, n)
		if err != nil {
			return nil, err
		}
		return &randomResponse{Seed: seed, SampleSize: n, Stores: picked}, nil
	}

	res, err := sampler.Stratified(stores, model.Grouping(req.Grouping), n)
	if err != nil {
		return nil, err
	}
	return &randomResponse{
		Seed:        seed,
		SampleSize:  n,
		Grouping:    res.Grouping,
		Allocations: res.Allocations,
		Stores:      res.Stores,
	}, nil
}

// RandomSample draws a simple or stratified random sample.
func (h *Handlers) RandomSample(c *gin.Context) {
	entry, ok := h.universe(c)
	if !ok {
		return
	}

	var req randomRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, CodeParameter, "invalid random sampling request: "+err.Error())
			return
		}
	}

	res, err := h.draw(entry.Stores, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, res)
}
