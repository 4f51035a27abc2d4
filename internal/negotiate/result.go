package negotiate

// QuestionCategory groups the follow-up questions extracted for one category
// header. Produced fresh each round and replaced wholesale by the next one.
type QuestionCategory struct {
	Category  string   `json:"category"`
	Questions []string `json:"questions"`
}

// Answer pairs a displayed category with the user's free-text reply.
type Answer struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// MetadataField is one row of the recommended metadata table.
type MetadataField struct {
	FieldName   string `json:"field_name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Explanation string `json:"explanation"`
}

// Vectorization is the embedding/chunking recommendation.
type Vectorization struct {
	Model               string `json:"model"`
	Chunking            string `json:"chunking"`
	ModelExplanation    string `json:"model_explanation"`
	ChunkingExplanation string `json:"chunking_explanation"`
}

// Usage accumulates oracle token accounting across rounds.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// FinalResult is produced exactly once per negotiation, when the controller
// finalizes. Immutable afterwards.
type FinalResult struct {
	Insights      string          `json:"insights"`
	Metadata      []MetadataField `json:"metadata,omitempty"`
	Vectorization *Vectorization  `json:"vectorization,omitempty"`
	Usage         Usage           `json:"usage"`
	Model         string          `json:"model,omitempty"`
}
