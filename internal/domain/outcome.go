package domain

// Route names the destination a batch of uploaded rows was sent to.
type Route string

const (
	RoutePersistent Route = "persistent"
	RouteMatching   Route = "matching"
	RouteUnmatching Route = "unmatching"
	RouteNone       Route = ""
)

// UploadOutcome summarizes the processing of one uploaded file. It is
// returned to the caller and discarded; nothing here is persisted.
type UploadOutcome struct {
	OK         bool   `json:"ok"`
	Message    string `json:"message"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
	Errors     int    `json:"errors"`
	RoutedTo   Route  `json:"routedTo,omitempty"`
}
