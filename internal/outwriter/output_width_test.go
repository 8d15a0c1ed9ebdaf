package outwriter

import (
	"testing"

	"github.com/huangsam/symnet/internal/contract"
	"github.com/stretchr/testify/assert"
)

func TestGetMaxTableNameWidth(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		columns  int
		expected int
	}{
		{"wide terminal is capped", 300, 4, maxNameWidth},
		{"narrow terminal has a floor", 40, 7, minNameWidth},
		{"fits in between", 80, 6, 80 - (6*(2+6) + 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &contract.Config{Width: tt.width, Precision: 2}
			assert.Equal(t, tt.expected, GetMaxTableNameWidth(cfg, tt.columns))
		})
	}
}

func TestDisplayName(t *testing.T) {
	cfg := &contract.Config{
		Catalog: &contract.Catalog{Abbreviations: []contract.AbbreviationRule{{From: "madrs_", To: "M"}}},
	}

	assert.Equal(t, "madrs_3", displayName("madrs_3", cfg, 20))

	cfg.Abbreviate = true
	assert.Equal(t, "M3", displayName("madrs_3", cfg, 20))
	assert.Equal(t, "negative_...", displayName("negative_affect_score", cfg, 12))
}
