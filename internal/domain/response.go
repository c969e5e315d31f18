package domain

type Category string

const (
	CategorySuccess         Category = "success"
	CategoryContextRequest  Category = "context_request"
	CategoryError           Category = "error"
	CategoryValidationError Category = "validation_error"
)

// Metadata keys shared by responses and stored messages.
const (
	MetaSessionID        = "session_id"
	MetaMessageCount     = "message_count"
	MetaError            = "error"
	MetaProcessedAt      = "processed_at"
	MetaResponseType     = "response_type"
	MetaProcessingTimeMs = "processing_time_ms"
	MetaModelUsed        = "model_used"
	MetaCostUSD          = "cost_usd"
	MetaCitations        = "citations"
)

// Response is the result of one turn. It is never stored.
type Response struct {
	Content          string
	Category         Category
	ProcessingTimeMs int64
	ModelUsed        string
	Metadata         map[string]any
}

func (r *Response) IsError() bool {
	return r.Category == CategoryError || r.Category == CategoryValidationError
}
