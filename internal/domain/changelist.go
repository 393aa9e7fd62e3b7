package domain

import "sort"

// ChangeEntry records a single user's role transition produced by a
// reconciliation: the role they held immediately before the operation
// (explicit row or implicit viewer) and the role they hold after it.
type ChangeEntry struct {
	Username string `json:"username"`
	OldRole  Role   `json:"oldRole"`
	NewRole  Role   `json:"newRole"`
}

// ChangeList is the diff a reconciliation produced, sorted by username.
// Users whose role did not change never appear.
type ChangeList []ChangeEntry

// Sort orders the list by username for deterministic output and fanout order.
func (cl ChangeList) Sort() {
	sort.Slice(cl, func(i, j int) bool { return cl[i].Username < cl[j].Username })
}

// Usernames returns the affected usernames in list order.
func (cl ChangeList) Usernames() []string {
	names := make([]string, 0, len(cl))
	for _, e := range cl {
		names = append(names, e.Username)
	}
	return names
}
