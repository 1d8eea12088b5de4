package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sape94/NIQ-sp-proj/internal/service/samplesize"
	"github.com/sape94/NIQ-sp-proj/internal/service/tabular"
)

const panelCSV = "HH_ID,Region,Channel,Households\n" +
	"10,North,Modern,120\n" +
	"2,North,Traditional,80\n" +
	"7,South,Modern,40.5\n" +
	"1,North,Modern,15\n" +
	"3,South,Modern,\n"

func (a *testAPI) uploadPanel() string {
	a.t.Helper()
	env := a.uploadTo("/api/tables", "panel.csv", []byte(panelCSV))
	require.Equal(a.t, CodeOK, env.Code, env.Message)

	var info tableInfo
	require.NoError(a.t, json.Unmarshal(env.Data, &info))
	require.NotEmpty(a.t, info.ID)
	return info.ID
}

func TestTableUpload(t *testing.T) {
	api := newTestAPI(t)

	env := api.upload("panel.csv", []byte(panelCSV))
	assert.Equal(t, CodeSchema, env.Code, "a panel is not a store universe")

	id := api.uploadPanel()
	var info tableInfo
	env = api.call(http.MethodGet, "/api/tables/"+id, nil, &info)
	require.Equal(t, CodeOK, env.Code)
	assert.Equal(t, "panel.csv", info.Filename)
	assert.Equal(t, []string{"HH_ID", "Region", "Channel", "Households"}, info.Columns)
	assert.Equal(t, []string{"HH_ID", "Households"}, info.NumericColumns)
	assert.Equal(t, 5, info.Rows)
	assert.Len(t, info.Preview, 5)

	var list []tableInfo
	api.call(http.MethodGet, "/api/tables", nil, &list)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Preview)

	env = api.call(http.MethodGet, "/api/universes/"+id, nil, nil)
	assert.Equal(t, CodeNotFound, env.Code, "tables and universes are cached apart")

	env = api.call(http.MethodDelete, "/api/tables/"+id, nil, nil)
	assert.Equal(t, CodeOK, env.Code)
	env = api.call(http.MethodGet, "/api/tables/"+id, nil, nil)
	assert.Equal(t, CodeNotFound, env.Code)
}

func TestTableSizes(t *testing.T) {
	api := newTestAPI(t)
	id := api.uploadPanel()

	var res struct {
		UniverseSize int                   `json:"universeSize"`
		Strata       []tabular.StratumSize `json:"strata"`
	}
	env := api.call(http.MethodGet, "/api/tables/"+id+"/sizes?id=HH_ID&columns=Region,%20Channel&confidence=90&error=0.1", nil, &res)
	require.Equal(t, CodeOK, env.Code, env.Message)
	assert.Equal(t, 5, res.UniverseSize)
	require.Len(t, res.Strata, 3)
	assert.Equal(t, []string{"North", "Modern"}, res.Strata[0].Keys)
	assert.Equal(t, 2, res.Strata[0].Count)
	assert.Equal(t, 2, res.Strata[0].RegularSize)
	assert.Equal(t, 1, res.Strata[1].WeightedSize)

	env = api.call(http.MethodGet, "/api/tables/"+id+"/sizes?columns=Region,Channel&feature=Channel&value=Modern&confidence=90&error=0.1", nil, &res)
	require.Equal(t, CodeOK, env.Code, env.Message)
	assert.Equal(t, 4, res.UniverseSize)
	assert.Len(t, res.Strata, 2)

	env = api.call(http.MethodGet, "/api/tables/"+id+"/sizes?columns=Region,Store", nil, nil)
	assert.Equal(t, CodeSchema, env.Code)
	env = api.call(http.MethodGet, "/api/tables/"+id+"/sizes", nil, nil)
	assert.Equal(t, CodeParameter, env.Code)
	env = api.call(http.MethodGet, "/api/tables/"+id+"/sizes?columns=Region&feature=Channel&value=Modern", nil, nil)
	assert.Equal(t, CodeParameter, env.Code)
}

func TestQuotaSizes(t *testing.T) {
	api := newTestAPI(t)
	id := api.uploadPanel()

	var res sheetResponse
	env := api.call(http.MethodGet, "/api/tables/"+id+"/quota-sizes?quota=HH_ID,Region,Channel", nil, &res)
	require.Equal(t, CodeOK, env.Code, env.Message)
	assert.Equal(t, []string{
		"HH_ID", "Region", "Channel",
		"Households", "Households_weight", "Households_regular_sample_size", "Households_weighted_sample_size",
	}, res.Columns)
	require.Len(t, res.Rows, 5)
	assert.Equal(t, "40", res.Rows[2][3])
	assert.Equal(t, "0", res.Rows[4][3])

	env = api.call(http.MethodGet, "/api/tables/"+id+"/quota-sizes", nil, nil)
	assert.Equal(t, CodeParameter, env.Code)
}

type tableSample struct {
	Seed        int64                   `json:"seed"`
	SampleSize  int                     `json:"sampleSize"`
	Population  int                     `json:"population"`
	Allocations []samplesize.Allocation `json:"allocations"`
	Columns     []string                `json:"columns"`
	Rows        [][]string              `json:"rows"`
}

func TestRandomTableSample(t *testing.T) {
	api := newTestAPI(t)
	id := api.uploadPanel()
	n, seed := 3, int64(5)

	var simple tableSample
	env := api.call(http.MethodPost, "/api/tables/"+id+"/random", tableRandomRequest{N: &n, Seed: &seed}, &simple)
	require.Equal(t, CodeOK, env.Code, env.Message)
	assert.Equal(t, int64(5), simple.Seed)
	assert.Equal(t, 3, simple.SampleSize)
	assert.Len(t, simple.Rows, 3)
	assert.Equal(t, []string{"HH_ID", "Region", "Channel", "Households"}, simple.Columns)
	assert.Empty(t, simple.Allocations)

	var again tableSample
	api.call(http.MethodPost, "/api/tables/"+id+"/random", tableRandomRequest{N: &n, Seed: &seed}, &again)
	assert.Equal(t, simple.Rows, again.Rows)

	n = 4
	var stratified tableSample
	req := tableRandomRequest{N: &n, Seed: &seed, Design: &tabular.Design{IDColumn: "HH_ID", Columns: []string{"Region"}}}
	env = api.call(http.MethodPost, "/api/tables/"+id+"/random", req, &stratified)
	require.Equal(t, CodeOK, env.Code, env.Message)
	assert.Equal(t, 5, stratified.Population)
	require.Len(t, stratified.Allocations, 2)
	assert.Equal(t, 4, samplesize.Total(stratified.Allocations))
	assert.Len(t, stratified.Rows, 4)

	req.Design = &tabular.Design{Columns: []string{"Province"}}
	env = api.call(http.MethodPost, "/api/tables/"+id+"/random", req, nil)
	assert.Equal(t, CodeSchema, env.Code)

	n = 6
	env = api.call(http.MethodPost, "/api/tables/"+id+"/random", tableRandomRequest{N: &n}, nil)
	assert.Equal(t, CodeParameter, env.Code)
}

func TestExportTable(t *testing.T) {
	api := newTestAPI(t)
	id := api.uploadPanel()
	n := 4

	tests := []struct {
		name   string
		req    tableExportRequest
		code   int
		sheets []string
	}{
		{"random", tableExportRequest{Kind: "random", Random: &tableRandomRequest{N: &n, Design: &tabular.Design{Columns: []string{"Region"}}}}, CodeOK, []string{"Sample", "Allocation"}},
		{"simple random", tableExportRequest{Kind: "random", Random: &tableRandomRequest{N: &n}}, CodeOK, []string{"Sample"}},
		{"sizes", tableExportRequest{Kind: "sizes", Design: &tabular.Design{Columns: []string{"Region", "Channel"}}}, CodeOK, []string{"Sample Sizes"}},
		{"quota", tableExportRequest{Kind: "quota", Quota: []string{"HH_ID", "Region", "Channel"}}, CodeOK, []string{"Quota Sample Sizes"}},
		{"sizes without design", tableExportRequest{Kind: "sizes"}, CodeParameter, nil},
		{"universe kind", tableExportRequest{Kind: "structure"}, CodeParameter, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res struct {
				Token  string   `json:"token"`
				Sheets []string `json:"sheets"`
			}
			env := api.call(http.MethodPost, "/api/tables/"+id+"/export", tt.req, &res)
			require.Equal(t, tt.code, env.Code, env.Message)
			if tt.code != CodeOK {
				return
			}
			assert.Equal(t, tt.sheets, res.Sheets)

			w := api.do(httptest.NewRequest(http.MethodGet, "/api/exports/"+res.Token+"?format=csv&sheet="+url.QueryEscape(tt.sheets[0]), nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
		})
	}
}
