package api

// PushRequest is the body of POST /api/history/push. Field names match the
// records served back to the display surface, plus the owner key and the
// write credential.
type PushRequest struct {
	MapName    string `json:"mapName"`
	MapHash    string `json:"mapHash"`
	BSRCode    string `json:"bsrCode"`
	CoverURL   string `json:"coverUrl"`
	Timestamp  int64  `json:"timestamp"` // ms since epoch; 0 = server fills in
	PlayerName string `json:"playerName"`
	Secret     string `json:"secret"`
}

// ClearAllRequest is the body of POST /api/history/clearAll.
type ClearAllRequest struct {
	PlayerName string `json:"playerName"`
	Secret     string `json:"secret"`
}

// OKResponse acknowledges a successful mutation.
type OKResponse struct {
	OK bool `json:"ok"`
}

// HealthResponse is the payload for GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Feed    string `json:"feed"`    // bridge connection state
	Records int    `json:"records"` // total records across all owners
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
