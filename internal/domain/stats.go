package domain

// LedgerStats is the operational snapshot served by GET /v1/stats/ledger.
// All counters are cumulative since process start.
type LedgerStats struct {
	RecordsAppended      int64   `json:"records_appended"`
	ValidationFailures   int64   `json:"validation_failures"`
	StorageReadErrors    int64   `json:"storage_read_errors"`
	StorageWriteErrors   int64   `json:"storage_write_errors"`
	SnapshotSaves        int64   `json:"snapshot_saves"`
	SnapshotSaveFailures int64   `json:"snapshot_save_failures"`
	IdentityCacheHitRate float64 `json:"identity_cache_hit_rate"`
	Period               string  `json:"period"`
}
