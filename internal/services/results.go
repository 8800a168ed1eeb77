package services

import (
	"github.com/querypilot/querypilot-backend/internal/bridge"
	"github.com/querypilot/querypilot-backend/internal/models"
)

// NormalizeResult reconciles the two success shapes the gateway emits
// into the single tabular contract: rows come from the first populated
// of data/result, and count falls back to the row count when the body
// carried no explicit one. Rows pass through untouched, with no schema
// inference and no flattening of nested values.
func NormalizeResult(resp *bridge.ExecuteResponse) models.ResultSet {
	rows := resp.Data
	if rows == nil {
		rows = resp.Result
	}
	if rows == nil {
		rows = []map[string]interface{}{}
	}

	count := len(rows)
	if resp.Count != nil {
		count = *resp.Count
	}

	return models.ResultSet{Rows: rows, Count: count}
}
