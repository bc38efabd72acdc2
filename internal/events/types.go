package events

// ChangeReason describes why the feature set changed
type ChangeReason int

const (
	ReasonReload ChangeReason = iota
	ReasonUpsert
	ReasonRemove
	ReasonRename
)

// String returns a string representation of the reason
func (r ChangeReason) String() string {
	switch r {
	case ReasonReload:
		return "reload"
	case ReasonUpsert:
		return "upsert"
	case ReasonRemove:
		return "remove"
	case ReasonRename:
		return "rename"
	default:
		return "unknown"
	}
}

// FeaturesChanged is published by the feature store after every mutation.
// Removed lists ids that no longer exist; Renamed maps old ids to new ones.
type FeaturesChanged struct {
	Reason  ChangeReason
	IDs     []string
	Removed []string
	Renamed map[string]string
	Count   int
}

// FilterCause tells which predicate triggered a visibility change
type FilterCause int

const (
	CauseFeatures FilterCause = iota
	CauseCategory
	CauseSearch
	CauseIsolate
)

// VisibilityChanged is published whenever the filter re-evaluates the feature set.
type VisibilityChanged struct {
	Cause      FilterCause
	Category   string
	SearchTerm string
	Isolated   string
	Visible    int
	Total      int
}

// SuggestionsChanged carries the current suggestion panel contents.
type SuggestionsChanged struct {
	Term  string
	Items []string
	Open  bool
}

// SelectionChanged is published on every Idle/Focused transition.
// An empty id means Idle.
type SelectionChanged struct {
	Previous string
	Current  string
}

// RouteChanged is published when a route session is created, resolved,
// replaced or destroyed.
type RouteChanged struct {
	Previous    string
	Destination string
	Active      bool
	Pending     bool
}

// DraftChanged is published when drawing mode or the provisional geometry changes.
type DraftChanged struct {
	Mode        string
	Vertices    int
	Provisional bool
	FormOpen    bool
}

// DeleteRequested asks the user to confirm the deletion of ID.
type DeleteRequested struct {
	ID string
}

// Level is the severity of a notice
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notice is a user-facing notification.
type Notice struct {
	Level   Level
	Message string
}

func (FeaturesChanged) Kind() string    { return "features_changed" }
func (VisibilityChanged) Kind() string  { return "visibility_changed" }
func (SuggestionsChanged) Kind() string { return "suggestions_changed" }
func (SelectionChanged) Kind() string   { return "selection_changed" }
func (RouteChanged) Kind() string       { return "route_changed" }
func (DraftChanged) Kind() string       { return "draft_changed" }
func (DeleteRequested) Kind() string    { return "delete_requested" }
func (Notice) Kind() string             { return "notice" }
