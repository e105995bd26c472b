package types

// CareerDocument is the unit stored in the vector index.
type CareerDocument struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata"`
	Embedding []float32         `json:"embedding"`
}

// Metadata keys written by the ingestor
const (
	MetaRole     = "role"
	MetaCategory = "category"
)

// Role returns the role metadata value, or "" when absent.
func (d CareerDocument) Role() string {
	return d.Metadata[MetaRole]
}

// QueryHit is one entry of a similarity query.
type QueryHit struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Distance float64           `json:"distance"`
}

// QueryResult holds up to k hits sorted by ascending distance.
type QueryResult struct {
	Results []QueryHit `json:"results"`
}

// Len returns the number of hits.
func (r QueryResult) Len() int {
	return len(r.Results)
}

// Top returns the closest hit and false when the result is empty.
func (r QueryResult) Top() (QueryHit, bool) {
	if len(r.Results) == 0 {
		return QueryHit{}, false
	}
	return r.Results[0], true
}
