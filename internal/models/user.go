package models

import "strings"

// User is a registered studio website account (/api/users). The console
// only lists them.
type User struct {
	ID        string `json:"_id,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (u User) Key() string { return u.ID }

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
