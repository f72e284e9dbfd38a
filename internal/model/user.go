// Package model defines domain entities for the application.
package model

import "fmt"

// User is a single directory record.
// The ID is supplied by the caller and is not checked for collisions
// unless strict validation is enabled on the service.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// String implements fmt.Stringer.
func (u User) String() string {
	return fmt.Sprintf("{%d %q}", u.ID, u.Name)
}

// SeedUsers returns the records every fresh directory starts with, in order.
// A new slice is returned on each call.
func SeedUsers() []User {
	return []User{
		{ID: 1, Name: "Akshay"},
		{ID: 2, Name: "bibin"},
		{ID: 3, Name: "dipin"},
		{ID: 4, Name: "gokul"},
		{ID: 5, Name: "vivek"},
	}
}

// CloneUsers returns a copy of users that shares no backing array with it.
// A nil input yields an empty, non-nil slice so it encodes as [] in JSON.
func CloneUsers(users []User) []User {
	out := make([]User, len(users))
	copy(out, users)
	return out
}
