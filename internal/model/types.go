// Package model defines the data types shared across the scanning,
// classification, attestation and purge subsystems.
package model

import "time"

// Risk is a deletion-safety classification for a filesystem path.
type Risk string

const (
	RiskSafe     Risk = "safe"
	RiskCaution  Risk = "caution"
	RiskCritical Risk = "critical"
)

// Category is the producer-assigned tag carried by an Item.
type Category string

const (
	CategoryBrowserCache Category = "browser_cache"
	CategoryDevCache     Category = "dev_cache"
	CategoryAppCache     Category = "app_cache"
	CategorySystemLogs   Category = "system_logs"
	CategoryMailBackups  Category = "mail_backups"
	CategoryGeneralCache Category = "general_cache"
	CategoryOther        Category = "other"
)

// MinItemSize is the reporting floor: a discovered Item is strictly larger
// than this many bytes.
const MinItemSize = 1024 // 1 KiB

// Item is one discovered reclaimable filesystem artifact. Once constructed
// by a scanner phase it is never mutated.
type Item struct {
	Path          string   `json:"path"`
	Size          int64    `json:"size"`
	SizeFormatted string   `json:"size_formatted"`
	LastAccessed  string   `json:"last_accessed"`
	Risk          Risk     `json:"risk"`
	Category      Category `json:"category"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
}

// DiskCategoryID enumerates the fixed set of full-disk-map display buckets.
type DiskCategoryID string

const (
	DiskCategoryApplications DiskCategoryID = "applications"
	DiskCategoryDeveloper    DiskCategoryID = "developer"
	DiskCategoryDocuments    DiskCategoryID = "documents"
	DiskCategoryMedia        DiskCategoryID = "media"
	DiskCategoryPhotos       DiskCategoryID = "photos"
	DiskCategoryMailMsgs     DiskCategoryID = "mail_messages"
	DiskCategoryAppData      DiskCategoryID = "app_data"
	DiskCategorySystemData   DiskCategoryID = "system_data"
	DiskCategoryOther        DiskCategoryID = "other"
	DiskCategoryCleanable    DiskCategoryID = "cleanable"
)

// DirEntrySize is one directory's contribution to a DiskCategory's top-N list.
type DirEntrySize struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// DiskCategory is a display bucket for the full-disk usage map.
type DiskCategory struct {
	ID          DiskCategoryID `json:"id"`
	DisplayName string         `json:"display_name"`
	Color       string         `json:"color"`
	Bytes       int64          `json:"bytes"`
	Count       int            `json:"count"`
	Dirs        []DirEntrySize `json:"dirs"`
	MoreCount   int            `json:"more_count"`
	MoreBytes   int64          `json:"more_bytes"`
}

// ArtifactDir is one cleanable build-artifact directory inside a StaleProject.
type ArtifactDir struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Description string `json:"description"`
	Size        int64  `json:"size"`
}

// StaleProject is a development project directory untouched for a long time.
type StaleProject struct {
	Path             string        `json:"path"`
	Basename         string        `json:"basename"`
	Markers          []string      `json:"markers"`
	MostRecentAccess time.Time     `json:"most_recent_access"`
	DaysStale        int           `json:"days_stale"`
	Artifacts        []ArtifactDir `json:"artifacts"`
	ReclaimableBytes int64         `json:"reclaimable_bytes"`
}

// RecommendationCategory buckets a Recommendation by urgency tier.
type RecommendationCategory string

const (
	RecUrgent      RecommendationCategory = "urgent"
	RecQuickWins   RecommendationCategory = "quick_wins"
	RecDevCleanup  RecommendationCategory = "dev_cleanup"
	RecMaintenance RecommendationCategory = "maintenance"
	RecMediaManage RecommendationCategory = "media_management"
)

// CategoryPriority returns the sort priority of a recommendation category.
// Lower values sort first.
func CategoryPriority(c RecommendationCategory) int {
	switch c {
	case RecUrgent:
		return 0
	case RecQuickWins:
		return 1
	case RecDevCleanup:
		return 2
	case RecMaintenance:
		return 3
	case RecMediaManage:
		return 4
	default:
		return 5
	}
}

// Recommendation is a ranked, actionable cleanup suggestion.
type Recommendation struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Category    RecommendationCategory `json:"category"`
	ImpactBytes int64                  `json:"impact_bytes"`
	Confidence  float64                `json:"confidence"`
	Risk        Risk                   `json:"risk"`
	TargetPaths []string               `json:"target_paths"`
	ActionType  string                 `json:"action_type"`
}

// ScanMetrics summarizes a completed scan for persistence and reporting.
type ScanMetrics struct {
	TotalBytes   int64          `json:"total_bytes"`
	TotalItems   int            `json:"total_items"`
	ErrorCounts  map[string]int `json:"error_counts"`
	DurationSecs float64        `json:"duration_secs"`
}

// ScanRecord is one persisted scan-history row.
type ScanRecord struct {
	ID           int64          `json:"id"`
	ScanTime     time.Time      `json:"scan_time"`
	Items        []Item         `json:"items"`
	Tree         []DiskCategory `json:"tree"`
	Metrics      ScanMetrics    `json:"metrics"`
	TotalBytes   int64          `json:"total_bytes"`
	DurationSecs float64        `json:"duration_secs"`
	Signature    string         `json:"signature"`
}

// SigningAlgorithm names the attestation signing primitive actually used.
type SigningAlgorithm string

const (
	AlgorithmEd25519    SigningAlgorithm = "Ed25519"
	AlgorithmHMACSHA256 SigningAlgorithm = "HMAC-SHA256"
)

// Attestation is a signed digest of an item set, used to detect tampering
// of cached results.
type Attestation struct {
	Algorithm   SigningAlgorithm `json:"algorithm"`
	ContentHash string           `json:"content_hash"`
	Signature   string           `json:"signature"`
	Timestamp   time.Time        `json:"timestamp"`
	KeyID       string           `json:"key_id"`
}

// GrowthPrediction is derived from at least two ScanRecords.
type GrowthPrediction struct {
	RateBytesPerDay float64 `json:"rate_bytes_per_day"`
	DaysUntilFull   float64 `json:"days_until_full"`
	SampleCount     int     `json:"sample_count"`
}

// DockerOverhead is the optional Docker-environment reclaim estimate folded
// into the result set as a dev_cache Item.
type DockerOverhead struct {
	TotalBytes       int64  `json:"total_bytes"`
	ReclaimableBytes int64  `json:"reclaimable_bytes"`
	Recommendation   string `json:"recommendation"`
}
