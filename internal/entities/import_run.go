package entities

import "time"

// ImportRun records the outcome of one archive import so repeated imports
// of overlapping exports stay auditable.
type ImportRun struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	SourceType SourceType `gorm:"index;size:32" json:"source_type"`
	FileName   string     `gorm:"size:512" json:"file_name"`
	Success    bool       `json:"success"`
	Accepted   int        `json:"accepted"`
	Skipped    int        `json:"skipped"`
	Degraded   int        `json:"degraded"`
	Failed     int        `json:"failed"`
	Message    string     `gorm:"size:1024" json:"message"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
}
