package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLegacyGross(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int64
		ok      bool
	}{
		{
			name:    "nested compensation shape",
			payload: `{"compensation":{"salary":25000,"currency":"NGN"}}`,
			want:    25000,
			ok:      true,
		},
		{
			name:    "oldest top-level shape",
			payload: `{"salary":18000,"title":"Weekly cleaning"}`,
			want:    18000,
			ok:      true,
		},
		{
			name:    "nested shape wins over stray top-level field",
			payload: `{"salary":1,"compensation":{"salary":25000}}`,
			want:    25000,
			ok:      true,
		},
		{
			name:    "no amount anywhere",
			payload: `{"title":"Cooking","compensation":{"currency":"NGN"}}`,
			ok:      false,
		},
		{
			name:    "negative amount rejected",
			payload: `{"salary":-500}`,
			ok:      false,
		},
		{
			name:    "non-numeric amount rejected",
			payload: `{"compensation":{"salary":"25000"}}`,
			ok:      false,
		},
		{
			name:    "malformed payload",
			payload: `{"compensation":`,
			ok:      false,
		},
		{
			name:    "empty payload",
			payload: "",
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalizeLegacyGross([]byte(tt.payload))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
