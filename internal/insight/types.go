package insight

// Insights is the LLM-produced qualitative assessment of a session.
type Insights struct {
	Summary        string   `json:"summary"`
	Outcome        string   `json:"outcome"`
	WhatWentWell   []string `json:"what_went_well"`
	AreasToImprove []string `json:"areas_to_improve"`
	TipsForFuture  []string `json:"tips_for_future"`
	Tags           []string `json:"tags"`
}

var allowedOutcomes = map[string]bool{
	"success":   true,
	"partial":   true,
	"abandoned": true,
	"error":     true,
}
