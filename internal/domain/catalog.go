package domain

// Activity is a catalog entry a song can be generated around.
type Activity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Adjective is a mood descriptor used to flavor generated songs.
type Adjective struct {
	ID   int64  `json:"id"`
	Word string `json:"word"`
}
