package models

import "time"

// School represents a school whose students are tracked.
type School struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	INEPCode     *string   `db:"inep_code" json:"inep_code,omitempty"`
	Address      string    `db:"address" json:"address"`
	TerritoryRef string    `db:"territory_ref" json:"territory_ref"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SchoolFilter narrows school listings.
type SchoolFilter struct {
	Search string
	Scope  Scope
}
