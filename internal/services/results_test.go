package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/querypilot/querypilot-backend/internal/bridge"
)

func intPtr(n int) *int { return &n }

func TestNormalizeResult(t *testing.T) {
	tests := []struct {
		name     string
		resp     bridge.ExecuteResponse
		wantRows []map[string]interface{}
		wantN    int
	}{
		{
			name: "rows under result with no count",
			resp: bridge.ExecuteResponse{
				Status: "success",
				Result: []map[string]interface{}{{"a": float64(1)}},
			},
			wantRows: []map[string]interface{}{{"a": float64(1)}},
			wantN:    1,
		},
		{
			name: "rows under data with explicit count",
			resp: bridge.ExecuteResponse{
				Status: "success",
				Data:   []map[string]interface{}{{"a": float64(1)}, {"a": float64(2)}},
				Count:  intPtr(200),
			},
			wantRows: []map[string]interface{}{{"a": float64(1)}, {"a": float64(2)}},
			wantN:    200,
		},
		{
			name:     "empty data with zero count",
			resp:     bridge.ExecuteResponse{Data: []map[string]interface{}{}, Count: intPtr(0)},
			wantRows: []map[string]interface{}{},
			wantN:    0,
		},
		{
			name:     "neither field present",
			resp:     bridge.ExecuteResponse{Status: "success"},
			wantRows: []map[string]interface{}{},
			wantN:    0,
		},
		{
			name: "data takes precedence over result",
			resp: bridge.ExecuteResponse{
				Data:   []map[string]interface{}{{"from": "data"}},
				Result: []map[string]interface{}{{"from": "result"}},
			},
			wantRows: []map[string]interface{}{{"from": "data"}},
			wantN:    1,
		},
		{
			name: "nested values pass through untouched",
			resp: bridge.ExecuteResponse{
				Result: []map[string]interface{}{
					{"address": map[string]interface{}{"city": "Lyon"}},
				},
			},
			wantRows: []map[string]interface{}{
				{"address": map[string]interface{}{"city": "Lyon"}},
			},
			wantN: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeResult(&tt.resp)
			assert.Equal(t, tt.wantRows, got.Rows)
			assert.Equal(t, tt.wantN, got.Count)
		})
	}
}
