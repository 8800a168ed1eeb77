package models

// ResultSet is the normalized tabular contract produced from a gateway
// execution response. Row key sets are preserved exactly as received and
// nested values stay structured; rendering is the display layer's job.
type ResultSet struct {
	Rows  []map[string]interface{} `json:"rows"`
	Count int                      `json:"count"`
}
