package core

import "time"

// HTTP client config constants
const (
	HTTPMaxIdleConns          = 16
	HTTPMaxIdleConnsPerHost   = 4
	HTTPMaxConnsPerHost       = 8
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPTLSHandshakeTimeout   = 30 * time.Second
	HTTPResponseHeaderTimeout = 90 * time.Second
	HTTPExpectContinueTimeout = 5 * time.Second
)

// Response body size limits
const (
	MaxResponseBodySize = 10 * 1024 * 1024
	MaxErrorBodyLength  = 512
)

// Stats and history constants
const (
	HistoryBufferSize    = 1000
	HistoryBatchSize     = 100
	HistoryFlushInterval = 100 * time.Millisecond
	HistoryLimit         = 50
	HistoryRedisKey      = "modelprobe:runs"
)

// Logging config constants
const (
	MaxDebugFilePathLength = 260
)

// File permission constants
const (
	FilePermissionReadWrite = 0644
)

// Time format constants
const (
	TimeFormatDateTime = "2006-01-02 15:04:05"
)
