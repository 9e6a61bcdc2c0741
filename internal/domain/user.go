package domain

import "time"

// User is the minimal profile slice the analytics core needs: existence
// checks for read-side queries and display names for leaderboards. Full
// profile CRUD lives outside this module.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
