package codec

import (
	"testing"

	"github.com/hupe1980/matdisco/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	c, err := ByName("json")
	require.NoError(t, err)
	assert.Equal(t, "json", c.Name())

	c, err = ByName("")
	require.NoError(t, err)
	assert.Equal(t, "go-json", c.Name())

	_, err = ByName("msgpack")
	assert.ErrorContains(t, err, "go-json")
}

func TestCodecs_Interchangeable(t *testing.T) {
	table := dataset.New("acc", []string{"f1"}, []dataset.Row{
		{Formula: "NaCl", Features: []float64{0.5}, Target: 1.25},
		{Formula: "Fe2O3", Features: []float64{-2}, Target: 3},
	})

	for _, enc := range []Codec{JSON{}, GoJSON{}} {
		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			t.Run(enc.Name()+"_"+dec.Name(), func(t *testing.T) {
				data, err := enc.Marshal(table)
				require.NoError(t, err)

				var got dataset.Table
				require.NoError(t, dec.Unmarshal(data, &got))
				assert.Equal(t, *table, got)
			})
		}
	}
}
