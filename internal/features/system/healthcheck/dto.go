package system_healthcheck

type HealthcheckResponse struct {
	Status  string        `json:"status"`
	Storage StorageHealth `json:"storage"`
	Cache   *CacheHealth  `json:"cache,omitempty"`
	Disk    *DiskHealth   `json:"disk,omitempty"`
}

type StorageHealth struct {
	Backend string `json:"backend"`
	Error   string `json:"error,omitempty"`
}

type CacheHealth struct {
	Error string `json:"error,omitempty"`
}

type DiskHealth struct {
	Path        string  `json:"path"`
	TotalBytes  uint64  `json:"total_bytes"`
	FreeBytes   uint64  `json:"free_bytes"`
	UsedPercent float64 `json:"used_percent"`
	Error       string  `json:"error,omitempty"`
}
