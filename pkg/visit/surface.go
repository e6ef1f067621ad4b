package visit

// Token identifies one load issued on a Surface. Tokens are opaque to the
// visit; equality against the in-flight token is the only operation
// performed. Zero means no load.
type Token uint64

// Request describes a full document load.
type Request struct {
	URL     string
	Referer string
}

// NavigationDecision describes a pending main-frame navigation the surface
// wants a policy for before proceeding.
type NavigationDecision struct {
	Location string
	// LinkActivated is true when the navigation was triggered by the user
	// activating a link rather than by the load the visit issued.
	LinkActivated bool
}

// Response describes a received navigation response awaiting a policy.
type Response struct {
	URL        string
	StatusCode int
	// HTTP is false when the response could not be interpreted as an HTTP
	// response at all.
	HTTP bool
}

// Successful reports whether the response is an HTTP 2xx.
func (r Response) Successful() bool {
	return r.HTTP && r.StatusCode >= 200 && r.StatusCode < 300
}

// Policy is the answer to a navigation or response decision.
type Policy string

const (
	PolicyAllow  Policy = "allow"
	PolicyCancel Policy = "cancel"
)

// NavigationHandler receives document-load navigation events from a
// Surface. The full-page strategy installs itself here for the duration of
// its visit.
type NavigationHandler interface {
	// DecideNavigation is consulted before a main-frame navigation proceeds.
	DecideNavigation(decision NavigationDecision) Policy

	// DecideResponse is consulted once a navigation response is available.
	DecideResponse(response Response) Policy

	// NavigationDidFail reports a committed navigation that failed.
	NavigationDidFail(token Token, cause error)

	// ProvisionalNavigationDidFail reports a navigation that failed before
	// being committed.
	ProvisionalNavigationDidFail(token Token, cause error)

	// NavigationDidFinish reports that a navigation finished. This is the
	// generic signal; it is not the page-load completion signal.
	NavigationDidFinish(token Token)

	// PageDidLoad reports that the page finished loading and its script
	// bootstrap captured a restoration identifier. This is the completion
	// signal for a full-page visit.
	PageDidLoad(restorationIdentifier string)

	// ServerDidRedirect reports a server-side redirect for the navigation
	// identified by token.
	ServerDidRedirect(token Token, location string)
}

// BridgeHandler receives script-bridge visit events from a Surface. Every
// callback is tagged with the bridge-assigned visit identifier; handlers
// must ignore identifiers they do not own.
type BridgeHandler interface {
	BridgeVisitStarted(identifier string, hasCachedSnapshot bool)
	BridgeRequestStarted(identifier string)
	BridgeRequestCompleted(identifier string)

	// BridgeRequestFailed carries the HTTP status code; zero means the
	// request produced no network-layer response at all.
	BridgeRequestFailed(identifier string, statusCode int)

	BridgeRequestFinished(identifier string)
	BridgeRendered(identifier string)
	BridgeVisitCompleted(identifier string, restorationIdentifier string)
}

// Surface is the rendering surface a visit drives. Implementations own the
// actual page; the visit only issues fire-and-forget requests and listens
// for the resulting callbacks.
//
// The handler slots are single-owner and switchable: each new visit
// installs its own handler, and a visit clears a slot only while it still
// owns it. Implementations must deliver all callbacks on the same
// goroutine that drives the visit.
type Surface interface {
	// Load begins a full document load and returns a token identifying it.
	Load(req Request) Token

	// StopLoading aborts any in-flight document load.
	StopLoading()

	NavigationHandler() NavigationHandler
	SetNavigationHandler(handler NavigationHandler)

	BridgeHandler() BridgeHandler
	SetBridgeHandler(handler BridgeHandler)

	// VisitLocation asks the page's script bridge to begin a visit. The
	// bridge answers with BridgeVisitStarted carrying its identifier.
	VisitLocation(location string, action Action, restorationIdentifier string)

	// CancelVisit asks the bridge to abandon the identified visit.
	CancelVisit(identifier string)

	// IssueRequestForVisit asks the bridge to issue the network request
	// backing the identified visit.
	IssueRequestForVisit(identifier string)

	// LoadResponseForVisit asks the bridge to render the live response.
	LoadResponseForVisit(identifier string)

	// ChangeHistoryForVisit asks the bridge to apply the visit's history
	// change.
	ChangeHistoryForVisit(identifier string)

	// LoadCachedSnapshotForVisit asks the bridge to render any cached
	// snapshot for the visit's location.
	LoadCachedSnapshotForVisit(identifier string)
}

// Visitable is the host-side screen associated with a visit's location.
type Visitable interface {
	// CurrentURL returns the URL the visitable currently represents.
	CurrentURL() string

	// DidRedirect tells the visitable its location moved server-side.
	DidRedirect(location string)
}
