package imtypes

// FileInfo describes a blob after upload.
type FileInfo struct {
	URL      string `json:"url"`      // durable URL usable as mediaUrl
	Key      string `json:"key"`      // storage key, used for deletion
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	FileName string `json:"fileName"` // name supplied by the uploader
}
