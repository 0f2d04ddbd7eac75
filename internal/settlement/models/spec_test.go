package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobSpecValidate(t *testing.T) {
	flat := &FlatSpec{FlatWidth: 7250, FlatHeight: 16375, Stock: "80# gloss text"}
	folded := &FoldedSpec{
		FlatWidth:      11000,
		FlatHeight:     17000,
		FinishedWidth:  8500,
		FinishedHeight: 5500,
		FoldType:       "tri-fold",
		Stock:          "100# gloss text",
	}

	tests := []struct {
		name    string
		spec    JobSpec
		wantErr string
	}{
		{
			name: "flat",
			spec: JobSpec{Format: FormatFlat, Flat: flat},
		},
		{
			name: "folded",
			spec: JobSpec{Format: FormatFolded, Folded: folded},
		},
		{
			name: "booklet self cover",
			spec: JobSpec{Format: FormatBookletSelfCover, BookletSelfCover: &BookletSelfCoverSpec{
				PageCount: 16, FinishedWidth: 8500, FinishedHeight: 11000, BindType: "saddle", Stock: "70# matte",
			}},
		},
		{
			name: "booklet plus cover",
			spec: JobSpec{Format: FormatBookletPlusCover, BookletPlusCover: &BookletPlusCoverSpec{
				PageCount: 32, FinishedWidth: 8500, FinishedHeight: 11000, BindType: "perfect",
				BodyStock: "70# matte", CoverStock: "100# cover",
			}},
		},
		{
			name:    "nothing populated",
			spec:    JobSpec{Format: FormatFlat},
			wantErr: "exactly one variant",
		},
		{
			name:    "two variants populated",
			spec:    JobSpec{Format: FormatFlat, Flat: flat, Folded: folded},
			wantErr: "exactly one variant",
		},
		{
			name:    "format names the wrong member",
			spec:    JobSpec{Format: FormatFolded, Flat: flat},
			wantErr: "does not match",
		},
		{
			name:    "unknown format",
			spec:    JobSpec{Format: "TRIPTYCH", Flat: flat},
			wantErr: "unknown job spec format",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestJobSpecVariant(t *testing.T) {
	flat := &FlatSpec{FlatWidth: 7250, FlatHeight: 16375}
	spec := JobSpec{Format: FormatFlat, Flat: flat}

	v, ok := spec.Variant().(*FlatSpec)
	require.True(t, ok)
	assert.Equal(t, flat, v)

	assert.Nil(t, (&JobSpec{Format: "BANNER"}).Variant())
}
