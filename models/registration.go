package models

import "time"

type Registration struct {
	TeamID       string     `json:"team_id" bson:"team_id"`
	TeamName     string     `json:"team_name" bson:"team_name"`
	RegisteredAt time.Time  `json:"registered_at" bson:"registered_at"`
	CheckedIn    bool       `json:"checked_in" bson:"checked_in"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty" bson:"checked_in_at,omitempty"`
	CheckedInBy  string     `json:"checked_in_by,omitempty" bson:"checked_in_by,omitempty"`
	Roster       []string   `json:"roster,omitempty" bson:"roster,omitempty"`
}
