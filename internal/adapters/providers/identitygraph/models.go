package identitygraph

// PersonHit is a single person returned by a search endpoint.
// Fields mirror the provider payload; mapping to internal candidate types
// happens in the discovery service
type PersonHit struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	Title       string `json:"title"`
	Department  string `json:"department"`
	Email       string `json:"email,omitempty"`
	NetworkURL  string `json:"network_url,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	CompanyID   string `json:"company_id,omitempty"`
	Location    string `json:"location,omitempty"`

	// IsDecisionMaker is the provider's own judgement. Advisory only;
	// classification treats it as one signal, never an authority
	IsDecisionMaker bool `json:"is_decision_maker,omitempty"`
}

// Organization is provider org metadata used for sourcing sanity checks
type Organization struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Website  string `json:"website"`
	Domain   string `json:"domain"`
	Industry string `json:"industry,omitempty"`
	Size     int    `json:"size,omitempty"`
	Country  string `json:"country,omitempty"`
}

type searchResponse struct {
	Hits  []PersonHit `json:"hits"`
	Total int         `json:"total"`
}
