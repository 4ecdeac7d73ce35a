package models

import (
	"time"
)

// TokenInfo mirrors the hash the identity provider writes to Redis for each
// user token.
type TokenInfo struct {
	Token           string    `json:"token"`
	RequestCount    int       `json:"request_count"`
	LastRequestTime time.Time `json:"last_request_dttm_utc"`
	CreatedTime     time.Time `json:"created_dttm_utc"`
}
