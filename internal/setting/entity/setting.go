package entity

import "time"

// Setting is one persisted key/value preference. Values are stored as text;
// typed accessors live in the setting service.
type Setting struct {
	Key       string    `db:"key" yaml:"key"`
	Value     string    `db:"value" yaml:"value"`
	UpdatedAt time.Time `db:"updated_at" yaml:"updated_at"`
}
