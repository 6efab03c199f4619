package pipeline

// Request is one unit of work: newline separated queries under a
// transaction id.
type Request struct {
	Text string `json:"text"`
	Tid  string `json:"tid"`
}
