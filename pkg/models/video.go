// Package models defines the records shared across the Tubely service.
package models

import "time"

// Video represents a video record and its uploaded asset locations.
// ThumbnailURL and VideoURL are nil until the corresponding upload succeeds.
type Video struct {
	ID           string    `json:"id" dynamodbav:"video_id"`
	UserID       string    `json:"userId" dynamodbav:"user_id"`
	Title        string    `json:"title" dynamodbav:"title"`
	Description  string    `json:"description,omitempty" dynamodbav:"description,omitempty"`
	ThumbnailURL *string   `json:"thumbnailUrl" dynamodbav:"thumbnail_url,omitempty"`
	VideoURL     *string   `json:"videoUrl" dynamodbav:"video_url,omitempty"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" dynamodbav:"updated_at"`
}

// User represents an account that owns videos. The password hash never
// leaves the storage layer in responses.
type User struct {
	ID           string    `json:"id" dynamodbav:"user_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"created_at"`
}

// UploadEvent is published after a successful video upload.
type UploadEvent struct {
	Type    string `json:"type"`
	VideoID string `json:"videoId"`
	Bucket  string `json:"bucket"`
	Key     string `json:"key"`
}
