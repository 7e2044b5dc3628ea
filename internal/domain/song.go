package domain

import "time"

// Song records a generated track persisted on disk.
type Song struct {
	ID         string
	FileName   string
	Activity   string
	Adjective1 string
	Adjective2 string
	CreatedAt  time.Time
}
