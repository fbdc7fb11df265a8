package models

// HeartbeatRequest is the POST /api/heartbeat payload. The session ID is an
// opaque client-generated string; the authentication claim is stored as
// asserted and is a display metric, not a security control.
type HeartbeatRequest struct {
	SessionID       string `json:"sessionId"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	UserID          *int64 `json:"userId,omitempty"`
}

// LeaveRequest is the fire-and-forget POST /api/leaving beacon payload.
type LeaveRequest struct {
	SessionID string `json:"sessionId"`
}

// ActiveUsers is the aggregate presence count.
type ActiveUsers struct {
	Total         int `json:"total"`
	Authenticated int `json:"authenticated"`
	Anonymous     int `json:"anonymous"`
}

// HeartbeatResponse is returned by POST /api/heartbeat.
type HeartbeatResponse struct {
	Success     bool        `json:"success"`
	ActiveUsers ActiveUsers `json:"activeUsers"`
}
