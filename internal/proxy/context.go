package proxy

import "github.com/google/uuid"

// requestState is the per-connection state spec §4.5 names explicitly:
// {user_id?, request_id, should_refresh, matched_route?, connection_type, origin?}.
type requestState struct {
	userID          string
	requestID       string
	shouldRefresh   bool
	matchedUpstream string
	stripPrefix     string
	connectionType  ConnectionType
	origin          string
}

func newRequestState() *requestState {
	return &requestState{requestID: uuid.New().String(), connectionType: ConnectionHTTP}
}

func (s *requestState) authenticated() bool { return s.userID != "" }
