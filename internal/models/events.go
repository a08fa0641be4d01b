package models

import "encoding/json"

// TimeWindow is an absolute UTC query window. Both instants are serialized
// as ISO-8601 with second precision and a literal Z suffix, which is the
// form the logs API expects.
type TimeWindow struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// TimeLayout is the wire format for TimeWindow instants.
const TimeLayout = "2006-01-02T15:04:05Z"

// TaskState is the server-reported state of an asynchronous search task.
type TaskState string

const (
	TaskPending    TaskState = "Pending"
	TaskProcessing TaskState = "Processing"
	TaskReady      TaskState = "Ready"
	TaskCompleted  TaskState = "Completed"
	TaskFailed     TaskState = "Failed"
)

// Terminal reports whether the state ends the poll loop successfully.
func (s TaskState) Terminal() bool {
	return s == TaskReady || s == TaskCompleted
}

// TaskStatus is one status-check response for a search task.
type TaskStatus struct {
	State      TaskState `json:"state"`
	PageTokens []string  `json:"pageTokens,omitempty"`
	Errors     []string  `json:"errors,omitempty"`
}

// RecordBatch is one retrieved page of results. Records are opaque JSON
// objects; the API's own recordsCount is carried verbatim.
type RecordBatch struct {
	Records       []json.RawMessage `json:"records"`
	RecordsCount  int               `json:"recordsCount"`
	NextPageToken string            `json:"nextPageToken,omitempty"`
}

// QueryResult is the final aggregated artifact of one search. Records keep
// their encounter order across shards and chained pages; TotalRecords is
// the sum of each batch's reported count, not len(Records).
type QueryResult struct {
	Records      []json.RawMessage `json:"records"`
	TotalRecords int               `json:"total_records"`
	FilterUsed   string            `json:"filter"`
	Timeframe    TimeWindow        `json:"timeframe"`
	Product      string            `json:"product"`
}
