package weatherapi

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryFromValues(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "city", raw: "city=+Minsk+", want: "Minsk"},
		{name: "coordinates win over city", raw: "city=Minsk&lat=53.9&lon=27.5667", want: "53.9,27.5667"},
		{name: "single coordinate is ignored", raw: "city=Minsk&lat=53.9", want: "Minsk"},
		{name: "nothing", raw: "", want: ""},
		{name: "latitude out of range", raw: "lat=91&lon=0", wantErr: true},
		{name: "longitude not a number", raw: "lat=1&lon=east", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := url.ParseQuery(tt.raw)
			require.NoError(t, err)

			q, err := QueryFromValues(v)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCoordinates)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.String())
			assert.Equal(t, tt.want == "", q.Empty())
		})
	}
}
