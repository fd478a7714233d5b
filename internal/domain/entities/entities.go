package entities

import "encoding/json"

// Collection is the ordered list of account records. Elements are kept as
// raw JSON so key order and number formatting survive a round trip.
type Collection []json.RawMessage

// EmptyCollection is the JSON sent when nothing has been stored yet
var EmptyCollection = json.RawMessage("[]")

// ReadStatus identifies which variant a ReadResult holds
type ReadStatus int

const (
	// ReadFound means the backing file existed and held valid JSON
	ReadFound ReadStatus = iota
	// ReadNotFound means the backing file does not exist
	ReadNotFound
	// ReadFailed covers every other I/O or parse failure
	ReadFailed
)

// String returns the label used in logs and metrics
func (s ReadStatus) String() string {
	switch s {
	case ReadFound:
		return "found"
	case ReadNotFound:
		return "not_found"
	case ReadFailed:
		return "error"
	default:
		return "unknown"
	}
}

// ReadResult is the outcome of reading the backing file
type ReadResult struct {
	Status ReadStatus
	// Data is the stored JSON value, compacted. Only set when Status is ReadFound.
	Data json.RawMessage
	// Err is the cause. Only set when Status is ReadFailed.
	Err error
}

// Found builds a ReadFound result
func Found(data json.RawMessage) ReadResult {
	return ReadResult{Status: ReadFound, Data: data}
}

// NotFound builds a ReadNotFound result
func NotFound() ReadResult {
	return ReadResult{Status: ReadNotFound}
}

// ReadError builds a ReadFailed result
func ReadError(err error) ReadResult {
	return ReadResult{Status: ReadFailed, Err: err}
}

// Body returns the JSON value a client should receive. A missing file reads
// as an empty collection. It returns nil for ReadFailed.
func (r ReadResult) Body() json.RawMessage {
	switch r.Status {
	case ReadFound:
		return r.Data
	case ReadNotFound:
		return EmptyCollection
	default:
		return nil
	}
}
