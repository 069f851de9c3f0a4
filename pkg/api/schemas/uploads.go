package schemas

// UploadResponse represents one stored file
type UploadResponse struct {
	FileID     string `json:"file_id" doc:"File ID"`
	ReportID   string `json:"report_id" doc:"Owning report ID"`
	Filename   string `json:"filename" doc:"Original filename"`
	FileFormat string `json:"file_format" doc:"Declared category (pitch deck, call recording, ...)"`
	UploadPath string `json:"upload_path" doc:"Blob storage location"`
	CreatedAt  string `json:"created_at" doc:"Upload timestamp"`
}

// DownloadURLResponse carries a time-limited download link
type DownloadURLResponse struct {
	FileID      string `json:"file_id" doc:"File ID"`
	Filename    string `json:"filename" doc:"Original filename"`
	DownloadURL string `json:"download_url" doc:"Presigned download URL"`
	ExpiresIn   string `json:"expires_in" doc:"URL validity window"`
}

// ReportFileResponse is one file in a report's file listing
type ReportFileResponse struct {
	UploadResponse
	DownloadURL string `json:"download_url,omitempty" doc:"Presigned download URL"`
	Error       string `json:"error,omitempty" doc:"Set when the URL could not be generated"`
}

// ReportFilesResponse lists all files for a report
type ReportFilesResponse struct {
	ReportID   string               `json:"report_id" doc:"Report ID"`
	Files      []ReportFileResponse `json:"files" doc:"Files belonging to the report"`
	TotalFiles int                  `json:"total_files" doc:"File count"`
}

// DeleteFileResponse reports the outcome of a file delete
type DeleteFileResponse struct {
	Message     string `json:"message" doc:"Outcome message"`
	BlobDeleted bool   `json:"blob_deleted" doc:"Whether the blob was removed from storage"`
}
