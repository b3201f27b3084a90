package models

// Card is a single face-down tile dealt into a session.
type Card struct {
	ID       int    `json:"id"`
	Value    string `json:"value"`
	Revealed bool   `json:"revealed"`
	Matched  bool   `json:"matched"`
}
