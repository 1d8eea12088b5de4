package tabular

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sape94/NIQ-sp-proj/internal/model"
	"github.com/sape94/NIQ-sp-proj/internal/table"
)

func quotaPivot() *table.Sheet {
	s := table.NewSheet("Pivot", "Region", "Channel", "Stores", "Note")
	s.Append("North", "Modern", "100.4", "a")
	s.Append("North", "Traditional", "50.5", "b")
	s.Append("South", "Modern", "", "c")
	return s
}

func TestNumericColumns(t *testing.T) {
	s := quotaPivot()
	assert.Equal(t, []string{"Stores"}, NumericColumns(s, []string{"Region"}))

	s.Columns = append(s.Columns, "Blank")
	for i := range s.Rows {
		s.Rows[i] = append(s.Rows[i], "")
	}
	assert.Equal(t, []string{"Stores"}, NumericColumns(s, nil), "a column of blanks is not numeric")
}

func TestQuotaSizes(t *testing.T) {
	out, err := QuotaSizes(quotaPivot(), []string{"Region", "Channel"}, model.DefaultSamplingParams())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Region", "Channel",
		"Stores", "Stores_weight", "Stores_regular_sample_size", "Stores_weighted_sample_size",
		"Note",
	}, out.Columns)
	require.Equal(t, 3, out.Len())

	first := out.Rows[0]
	assert.Equal(t, []string{"North", "Modern", "100"}, first[:3])
	w, err := strconv.ParseFloat(first[3], 64)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3, w, 1e-12)
	assert.Equal(t, []string{"80", "73", "a"}, first[4:])

	assert.Equal(t, "50", out.Rows[1][2], "50.5 rounds half to even")
	assert.Equal(t, []string{"45", "36"}, out.Rows[1][4:6])
	assert.Equal(t, []string{"South", "Modern", "0", "0", "0", "0", "c"}, out.Rows[2])
}

func TestQuotaSizesErrors(t *testing.T) {
	params := model.DefaultSamplingParams()

	_, err := QuotaSizes(quotaPivot(), nil, params)
	var paramErr *model.ParameterError
	require.True(t, errors.As(err, &paramErr))
	assert.Equal(t, "quota", paramErr.Name)

	_, err = QuotaSizes(quotaPivot(), []string{"Region", "Channel", "Stores"}, params)
	require.True(t, errors.As(err, &paramErr), "no numeric column left")

	_, err = QuotaSizes(quotaPivot(), []string{"Province"}, params)
	var schemaErr *model.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"Province"}, schemaErr.MissingNames())

	negative := quotaPivot()
	negative.Rows[1][2] = "-4"
	_, err = QuotaSizes(negative, []string{"Region"}, params)
	var typeErr *model.DataTypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, "Stores", typeErr.Column)
	assert.Equal(t, 2, typeErr.Row)

	_, err = QuotaSizes(table.NewSheet("Pivot", "Region", "Stores"), []string{"Region"}, params)
	assert.ErrorIs(t, err, model.ErrEmptyUniverse)
}
