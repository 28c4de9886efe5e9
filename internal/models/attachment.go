package models

import "time"

// AttachmentFile binds an uploaded essay-answer file to a submission and
// question. Files are uploaded first and re-pointed at submit time, so the
// submission reference stays null until then.
type AttachmentFile struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID *uint     `gorm:"index" json:"submission_id"`
	QuestionID   *uint     `json:"question_id"`
	UploaderID   uint      `gorm:"not null" json:"uploader_id"`
	StorageKey   string    `gorm:"size:64;uniqueIndex;not null" json:"storage_key"`
	URL          string    `gorm:"size:512;not null" json:"url"`
	FileName     string    `gorm:"size:255;not null" json:"file_name"`
	MimeType     string    `gorm:"size:128;not null" json:"mime_type"`
	SizeBytes    int64     `gorm:"not null" json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`
}
