package dto

// FiltersDTO narrows retrieval to matching document metadata. All fields
// are optional and conjunctive.
type FiltersDTO struct {
	DocumentType   string `json:"document_type,omitempty"`
	Category       string `json:"category,omitempty"`
	GeographicZone string `json:"geographic_zone,omitempty"`
	PriceYear      int    `json:"price_year,omitempty"`
}

type QueryRequest struct {
	Query          string      `json:"query" validate:"required,max=5000"`
	SessionId      string      `json:"session_id,omitempty"`
	MaxResults     int         `json:"max_results,omitempty" validate:"omitempty,min=1,max=50"`
	MinScore       *float64    `json:"min_score,omitempty" validate:"omitempty,min=0,max=1"`
	Filters        *FiltersDTO `json:"filters,omitempty"`
	IncludeSources bool        `json:"include_sources,omitempty"`
}

type SourceDTO struct {
	ChunkId    string  `json:"chunk_id"`
	DocumentId string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	SourcePage *int    `json:"source_page,omitempty"`
	SourceRow  *int    `json:"source_row,omitempty"`
}

type QueryResponse struct {
	Answer     string      `json:"answer"`
	Mode       string      `json:"mode"`
	IsEstimate bool        `json:"is_estimate"`
	Sources    []SourceDTO `json:"sources"`
	SessionId  string      `json:"session_id"`
	Metadata   QueryMeta   `json:"metadata"`
}

type QueryMeta struct {
	ResultsCount int     `json:"results_count"`
	MaxScore     float64 `json:"max_score"`
	MinScoreUsed float64 `json:"min_score_used"`
}

type SearchRequest struct {
	Query      string      `json:"query" validate:"required,max=5000"`
	MaxResults int         `json:"max_results,omitempty" validate:"omitempty,min=1,max=50"`
	MinScore   float64     `json:"min_score,omitempty" validate:"omitempty,min=0,max=1"`
	Filters    *FiltersDTO `json:"filters,omitempty"`
}

type SearchResponse struct {
	Query        string      `json:"query"`
	TotalResults int         `json:"total_results"`
	Results      []SourceDTO `json:"results"`
}

type SessionStatsResponse struct {
	TotalSessions  int     `json:"total_sessions"`
	ActiveSessions int     `json:"active_sessions"`
	MaxSessions    int     `json:"max_sessions"`
	TTLHours       float64 `json:"ttl_hours"`
}

type ClearSessionResponse struct {
	SessionId string `json:"session_id"`
	Cleared   bool   `json:"cleared"`
}
