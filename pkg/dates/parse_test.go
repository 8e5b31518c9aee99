package dates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/docket/pkg/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      string
		precision types.Precision
	}{
		{name: "iso date", raw: "2023-05-12", want: "2023-05-12", precision: types.PrecisionDay},
		{name: "iso date without padding", raw: "2023-5-2", want: "2023-05-02", precision: types.PrecisionDay},
		{name: "iso datetime utc", raw: "2023-05-12T14:30:00Z", want: "2023-05-12", precision: types.PrecisionDay},
		{name: "iso datetime keeps its own offset", raw: "2023-05-12T23:30:00+08:00", want: "2023-05-12", precision: types.PrecisionDay},
		{name: "space timestamp", raw: "2023-05-12 14:30:05", want: "2023-05-12", precision: types.PrecisionDay},
		{name: "space timestamp without seconds", raw: "2023-05-12 9:30", want: "2023-05-12", precision: types.PrecisionDay},
		{name: "colon timestamp", raw: "2023:05:12 14:30:05", want: "2023-05-12", precision: types.PrecisionDay},
		{name: "localized year month day", raw: "2023年5月12日", want: "2023-05-12", precision: types.PrecisionDay},
		{name: "slash year month day", raw: "2023/05/12", want: "2023-05-12", precision: types.PrecisionDay},
		{name: "dotted year month day", raw: "2023.5.12", want: "2023-05-12", precision: types.PrecisionDay},
		{name: "full width digits", raw: "２０２３年０５月１２日", want: "2023-05-12", precision: types.PrecisionDay},
		{name: "localized year month", raw: "2023年5月", want: "2023-05", precision: types.PrecisionMonth},
		{name: "dashed year month", raw: "2023-05", want: "2023-05", precision: types.PrecisionMonth},
		{name: "localized year", raw: "2023年", want: "2023", precision: types.PrecisionYear},
		{name: "bare year", raw: " 2023 ", want: "2023", precision: types.PrecisionYear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.precision, got.Precision)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "whitespace", raw: "   "},
		{name: "free text", raw: "signed last spring"},
		{name: "impossible day", raw: "2023-02-30"},
		{name: "impossible month", raw: "2023年13月"},
		{name: "year out of range", raw: "0999"},
		{name: "two digit year", raw: "23-05-12"},
		{name: "day first", raw: "12/05/2023"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			assert.ErrorIs(t, err, types.ErrParseFailure)
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		"2023-05-12T14:30:00Z",
		"2023:05:12 14:30:05",
		"2023年5月",
		"2023年",
		"2024/02/29",
	}
	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			first, err := Parse(raw)
			require.NoError(t, err)

			second, err := Parse(first.String())
			require.NoError(t, err)
			assert.Equal(t, first.Precision, second.Precision)
			assert.Equal(t, first.String(), second.String())
		})
	}
}
