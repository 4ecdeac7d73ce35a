package models

import "time"

// ChatOwnerMapping links a telegram chat to the owner id whose records the
// reminder bot reports on.
type ChatOwnerMapping struct {
	ChatID          int64     `json:"chat_id"`
	Owner           string    `json:"owner"`
	Comment         string    `json:"comment"`
	AssociationTime time.Time `json:"association_time"`
}
