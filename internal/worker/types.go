package worker

import (
	"errors"
)

// Kind names the operation a request asks for
type Kind string

const (
	KindLoadLogs   Kind = "loadLogs"
	KindParseLogs  Kind = "parseLogs"
	KindFilterLogs Kind = "filterLogs"
)

// Payload carries the input of a request. Unused fields stay zero.
type Payload struct {
	Content string `json:"content,omitempty"`
	Tail    int    `json:"tail,omitempty"`
	Filter  string `json:"filter,omitempty"`
}

// Request is posted to a Worker. ID is chosen by the caller and must be unique
// among the worker's in-flight requests.
type Request struct {
	ID      string  `json:"id"`
	Kind    Kind    `json:"kind"`
	Payload Payload `json:"payload"`
}

// ResponseData is the result of a successful request
type ResponseData struct {
	Content       string   `json:"content,omitempty"`
	Lines         []string `json:"lines,omitempty"`
	TotalLines    int      `json:"totalLines,omitempty"`
	FilteredCount int      `json:"filteredCount,omitempty"`
}

// Response answers exactly one Request, echoing its ID and Kind
type Response struct {
	ID      string        `json:"id"`
	Kind    Kind          `json:"kind"`
	Success bool          `json:"success"`
	Data    *ResponseData `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// ReplyID returns the id of the answered request
func (r Response) ReplyID() string {
	return r.ID
}

// Err returns the reported failure, nil on success
func (r Response) Err() error {
	if r.Success {
		return nil
	}
	return errors.New(r.Error)
}

// clone returns a copy sharing no mutable memory with r
func (r Response) clone() Response {
	if r.Data == nil {
		return r
	}
	data := *r.Data
	if r.Data.Lines != nil {
		data.Lines = append([]string(nil), r.Data.Lines...)
	}
	r.Data = &data
	return r
}

// State is the lifecycle stage of a Worker
type State int

const (
	StateCreated State = iota
	StateReady
	StateProcessing
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateReady:
		return "ready"
	case StateProcessing:
		return "processing"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
