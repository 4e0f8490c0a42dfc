// Package types holds the request/response shapes shared between the
// analysis pipeline and the HTTP layer.
package types

// AnalysisRequest is the input for every pipeline task. The job description
// and resume travel verbatim into the prompt; they are never persisted.
type AnalysisRequest struct {
	JobDescription string `json:"jobDescription"`
	ResumeText     string `json:"resume"`
	UserEmail      string `json:"userEmail,omitempty"`
	// APIKey, when present, is an explicitly supplied Gemini key that
	// overrides the resolver's personal/shared lookup.
	APIKey string `json:"apiKey,omitempty"`
}

type KeywordResult struct {
	Keywords []string `json:"keywords"`
}

type MatchResult struct {
	Score         int      `json:"score"`
	Justification string   `json:"justification"`
	MissingSkills []string `json:"missingSkills"`
}

type OptimizationResult struct {
	OptimizedResume string `json:"optimizedResume"`
	MatchingScore   int    `json:"matchingScore"`
}

// AnalysisResult combines the two independent analysis tasks. Each task
// fails on its own: a keyword failure never hides a successful score and
// vice versa.
type AnalysisResult struct {
	Keywords      *KeywordResult `json:"keywords,omitempty"`
	KeywordsError string         `json:"keywordsError,omitempty"`
	Match         *MatchResult   `json:"match,omitempty"`
	MatchError    string         `json:"matchError,omitempty"`
}

type UsageStatus struct {
	Remaining int `json:"remaining"`
	Total     int `json:"total"`
}
