package core

// Suggestion is a single follow-up action offered to the user alongside a
// reply. BeFunction names a backend operation the client may trigger directly;
// FeNavigation names a client-side view change. At most one of the two is set.
type Suggestion struct {
	Feature      string `json:"feature"`
	UseCase      string `json:"use_case"`
	Initiator    string `json:"initiator,omitempty"`
	Message      string `json:"message"`
	BeFunction   string `json:"be_function,omitempty"`
	FeNavigation string `json:"fe_navigation,omitempty"`
	Topic        string `json:"topic,omitempty"`
	Doublecheck  bool   `json:"doublecheck,omitempty"`
}

// ChatResponse is the structured reply surface for one completed turn.
type ChatResponse struct {
	Response    string       `json:"response"`
	Suggestions []Suggestion `json:"suggestions"`
	BeFunction  string       `json:"be_function,omitempty"`
	DBUpdated   bool         `json:"db_updated"`
}

// Clone returns a deep copy of the response.
func (r ChatResponse) Clone() ChatResponse {
	c := r
	if r.Suggestions != nil {
		c.Suggestions = append([]Suggestion(nil), r.Suggestions...)
	}
	return c
}
