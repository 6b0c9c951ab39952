package constant

const (
	// EmbedDocumentTopic is the in-process queue carrying chunk
	// embedding jobs from upload to the background worker.
	EmbedDocumentTopic = "embed_document_topic"
)
