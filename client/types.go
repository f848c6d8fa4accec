package client

import "time"

// ImageData is one gallery image as the client sees it.
type ImageData struct {
	ID        string    `json:"id"`
	FilePath  string    `json:"filePath"`
	URL       string    `json:"url"`
	Date      time.Time `json:"date"`
	MonthYear string    `json:"monthYear"`
}

// SkippedUpload reports an upload entry the server rejected.
type SkippedUpload struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// UploadOutcome is the result of uploading a batch of files.
type UploadOutcome struct {
	Uploaded []ImageData     `json:"uploaded"`
	Skipped  []SkippedUpload `json:"skipped,omitempty"`
	// Rejected lists local files filtered out before the request was
	// sent (non-JPEG or unreadable), keyed by path.
	Rejected map[string]string `json:"rejected,omitempty"`
}

// serverRecord mirrors the JSON the server emits for a single image.
type serverRecord struct {
	ID        string `json:"id"`
	FilePath  string `json:"filePath"`
	URL       string `json:"url"`
	Date      string `json:"date"`
	MonthYear string `json:"monthYear"`
}

// serverListResponse mirrors the GET /images response.
type serverListResponse struct {
	Images []serverRecord `json:"images"`
}

// serverUploadResponse mirrors the POST /images response.
type serverUploadResponse struct {
	Success bool            `json:"success"`
	Images  []serverRecord  `json:"images"`
	Skipped []SkippedUpload `json:"skipped,omitempty"`
}

// serverErrorResponse mirrors the server's error envelope.
type serverErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (r serverRecord) toImageData() ImageData {
	date, err := time.Parse(time.RFC3339, r.Date)
	if err != nil {
		date = time.Time{}
	}
	return ImageData{
		ID:        r.ID,
		FilePath:  r.FilePath,
		URL:       r.URL,
		Date:      date,
		MonthYear: r.MonthYear,
	}
}
