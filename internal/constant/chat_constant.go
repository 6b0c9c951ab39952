package constant

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

const (
	// DefaultChatModel is used when a session does not override the model.
	DefaultChatModel = "gpt-4o-mini"

	DefaultTopK        = 3
	DefaultUseMMR      = true
	DefaultMMRLambda   = 0.5
	DefaultTemperature = 0.7

	DefaultMaxOutputTokens  = 2000
	DefaultMaxContextTokens = 3000
	DefaultHistoryMinTurns  = 6

	// SummaryInterval is the number of assistant messages between
	// long-term summary refreshes.
	SummaryInterval = 5
	// SummaryWindow is how many recent messages feed the summarizer.
	SummaryWindow = 20

	// MaxUploadBytes caps document upload size.
	MaxUploadBytes = 10 << 20

	// DefaultChunkSize is the maximum character length of a document chunk.
	DefaultChunkSize = 500

	// EmbeddingDimensions matches the vector column width.
	EmbeddingDimensions = 1536
)
