package dto

// LabelCount is the number of seconds a label was reported in one stream.
type LabelCount struct {
	Label   string `json:"label"`
	Seconds int    `json:"seconds"`
}
