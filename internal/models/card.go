package models

// Card is one selectable point value in a session's deck
type Card struct {
	// Value is the point value as entered, kept as an unparsed digit string
	Value string `json:"value"`

	// Tag is the cosmetic display category assigned from the tag palette
	Tag string `json:"tag"`
}
