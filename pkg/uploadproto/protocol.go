// Package uploadproto описывает HTTP-протокол сервиса возобновляемой загрузки частями.
package uploadproto

// Пути и параметры протокола. Совпадают с браузерным клиентом.
const (
	PathHealth         = "/health"
	PathUploadedChunks = "/uploaded-chunks"
	PathUpload         = "/upload"
	PathMerge          = "/merge"
	PathAdminGC        = "/admin/gc"

	QueryHash = "hash"

	FieldHash       = "hash"
	FieldChunkIndex = "chunkIndex"
	FieldFileName   = "filename"
	FieldFile       = "file"
)

// UploadResponse — ответ на загрузку части.
type UploadResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// MergeRequest — тело POST /merge.
type MergeRequest struct {
	FileName string `json:"filename" validate:"required"`
	Hash     string `json:"hash" validate:"required"`
}

// MergeResponse — ответ на успешную сборку.
type MergeResponse struct {
	Success  bool   `json:"success"`
	FilePath string `json:"filePath"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Size     int64  `json:"size"`
	Chunks   int    `json:"chunks"`
	Warning  string `json:"warning,omitempty"`
}

// ErrorResponse — тело любого неуспешного ответа.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HealthResponse — payload GET /health.
type HealthResponse struct {
	OK          bool  `json:"ok"`
	Sessions    int   `json:"sessions"`
	Chunks      int   `json:"chunks"`
	StoredBytes int64 `json:"stored_bytes"`
	StagedBytes int64 `json:"staged_bytes"`
}
