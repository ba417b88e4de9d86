package models

import "testing"

func TestContactVisibleTo(t *testing.T) {
	testCases := []struct {
		name            string
		visibility      ContactVisibility
		viewerID        string
		viewerOnboarded bool
		want            bool
	}{
		{"owner sees private", ContactPrivate, "owner", false, true},
		{"owner sees verified", ContactVisibleToStudents, "owner", true, true},
		{"onboarded student sees verified", ContactVisibleToStudents, "viewer", true, true},
		{"non-onboarded viewer blocked from verified", ContactVisibleToStudents, "viewer", false, false},
		{"other student blocked from private", ContactPrivate, "viewer", true, false},
		{"empty visibility treated as private", "", "viewer", true, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Contact{UserID: "owner", Visibility: tc.visibility}
			if got := c.VisibleTo(tc.viewerID, tc.viewerOnboarded); got != tc.want {
				t.Errorf("VisibleTo(%q, %v) = %v, want %v", tc.viewerID, tc.viewerOnboarded, got, tc.want)
			}
		})
	}
}

func TestContactVisibleToNil(t *testing.T) {
	var c *Contact
	if c.VisibleTo("anyone", true) {
		t.Error("nil contact should never be visible")
	}
}
