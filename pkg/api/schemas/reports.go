package schemas

import "encoding/json"

// ReportResponse represents one report row
type ReportResponse struct {
	ReportID    string `json:"report_id" doc:"Report ID"`
	ReportName  string `json:"report_name" doc:"Generated report name"`
	StartupName string `json:"startup_name" doc:"Startup name"`
	FounderName string `json:"founder_name" doc:"Founder name"`
	LaunchDate  string `json:"launch_date,omitempty" doc:"Launch date"`
	Status      string `json:"status" doc:"Report status (pending, success, failed)"`
	IsPinned    bool   `json:"is_pinned" doc:"Whether the report is pinned"`
	ReportPath  string `json:"report_path,omitempty" doc:"Result artifact location"`
	CreatedAt   string `json:"created_at" doc:"Creation timestamp"`
	FileCount   int    `json:"file_count" doc:"Number of uploaded files"`
}

// ReportListResponse is one page of reports
type ReportListResponse struct {
	Reports []ReportResponse `json:"reports" doc:"Page of reports"`
	Total   int              `json:"total" doc:"Total matching reports"`
	Skip    int              `json:"skip" doc:"Offset used for this page"`
	Limit   int              `json:"limit" doc:"Page size used"`
}

// ReportDataResponse carries the analysis result when available
type ReportDataResponse struct {
	Report  ReportResponse  `json:"report" doc:"Report metadata"`
	Data    json.RawMessage `json:"data,omitempty" doc:"Analysis result (null until ready)"`
	Message string          `json:"message,omitempty" doc:"Status hint when data is unavailable"`
}

// DeleteReportResponse reports the outcome of a delete
type DeleteReportResponse struct {
	Message      string `json:"message" doc:"Outcome message"`
	FilesDeleted int    `json:"files_deleted" doc:"Number of blobs deleted from storage"`
}

// PinResponse reports the new pin state
type PinResponse struct {
	Message string `json:"message" doc:"Outcome message"`
	Pinned  bool   `json:"pinned" doc:"Pin state after the toggle"`
}
