package dashboard

import "github.com/mesikahq/patient-dashboard/internal/patient"

// RosterEntry is one clickable item in the patient list.
type RosterEntry struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

func BuildRoster(records []patient.Record, defaultImage string) []RosterEntry {
	roster := make([]RosterEntry, len(records))
	for i := range records {
		roster[i] = RosterEntry{
			Index: i,
			Name:  records[i].Name,
			Image: imageOrDefault(records[i].ProfilePicture, defaultImage),
		}
	}
	return roster
}
