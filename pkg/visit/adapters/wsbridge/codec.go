package wsbridge

// The bridge protocol is JSON envelopes over a single websocket. Commands
// flow from the visit to the remote surface and are fire-and-forget except
// for decisions, which answer an event by echoing its id. Events flow the
// other way and carry whichever fields their name requires.

const (
	kindCommand = "command"
	kindEvent   = "event"
)

// Commands issued to the remote surface.
const (
	commandLoad          = "load"
	commandStop          = "stop"
	commandVisit         = "visit"
	commandCancelVisit   = "cancel_visit"
	commandIssueRequest  = "issue_request"
	commandLoadResponse  = "load_response"
	commandChangeHistory = "change_history"
	commandLoadSnapshot  = "load_snapshot"
	commandDecision      = "decision"
)

// Events received from the remote surface.
const (
	eventDecideNavigation   = "decide_navigation"
	eventDecideResponse     = "decide_response"
	eventNavigationFailed   = "navigation_failed"
	eventProvisionalFailed  = "provisional_navigation_failed"
	eventNavigationFinished = "navigation_finished"
	eventPageLoaded         = "page_loaded"
	eventServerRedirect     = "server_redirect"
	eventVisitStarted       = "visit_started"
	eventRequestStarted     = "request_started"
	eventRequestCompleted   = "request_completed"
	eventRequestFailed      = "request_failed"
	eventRequestFinished    = "request_finished"
	eventRendered           = "rendered"
	eventVisitCompleted     = "visit_completed"
)

type envelope struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`

	Token                 uint64 `json:"token,omitempty"`
	Location              string `json:"location,omitempty"`
	Referer               string `json:"referer,omitempty"`
	Action                string `json:"action,omitempty"`
	Identifier            string `json:"identifier,omitempty"`
	RestorationIdentifier string `json:"restoration_identifier,omitempty"`
	HasCachedSnapshot     bool   `json:"has_cached_snapshot,omitempty"`
	StatusCode            int    `json:"status_code,omitempty"`
	HTTP                  bool   `json:"http,omitempty"`
	LinkActivated         bool   `json:"link_activated,omitempty"`
	Policy                string `json:"policy,omitempty"`
	Cause                 string `json:"cause,omitempty"`
}
