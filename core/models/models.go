package models

import "slices"

// HardwareSet is a pool of interchangeable units.
type HardwareSet struct {
	// Name is the unique key of the set (e.g., "HWSet1").
	Name string `json:"name"`
	// Available is the number of units not checked out by any project.
	Available int `json:"available"`
	// Capacity is the total number of units in the set.
	Capacity int `json:"capacity"`
}

// Valid reports whether 0 <= Available <= Capacity.
func (h HardwareSet) Valid() bool {
	return h.Capacity >= 0 && h.Available >= 0 && h.Available <= h.Capacity
}

// Project groups users and the hardware they currently hold.
type Project struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Users       []string       `json:"users"`
	Hardware    map[string]int `json:"hardware"`
	// Joined reports whether the current user is a member.
	Joined bool `json:"joined"`
}

// CheckedOut returns the quantity of the named hardware set held by the project.
func (p Project) CheckedOut(hardware string) int {
	return p.Hardware[hardware]
}

// HasUser reports whether username is listed as a member.
func (p Project) HasUser(username string) bool {
	return slices.Contains(p.Users, username)
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	out := p
	out.Users = slices.Clone(p.Users)
	if out.Users == nil {
		out.Users = []string{}
	}
	out.Hardware = make(map[string]int, len(p.Hardware))
	for k, v := range p.Hardware {
		out.Hardware[k] = v
	}
	return out
}
