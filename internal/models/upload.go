package models

// MergeResult возвращается после успешной сборки файла из частей.
type MergeResult struct {
	SessionID string
	FileName  string
	Path      string
	Size      int64
	Chunks    int
	// CleanupErr заполнен, если каталог сессии не удалось удалить.
	CleanupErr error
}
