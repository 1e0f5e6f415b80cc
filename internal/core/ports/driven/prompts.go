package driven

// Prompt names recognised by the PromptStore.
const (
	// PromptAnalysis produces the structured query analysis.
	PromptAnalysis = "analysis"

	// PromptSufficiency decides whether a document search is warranted.
	PromptSufficiency = "sufficiency"

	// PromptTransform expands a question into retrieval paraphrases.
	PromptTransform = "transform"

	// PromptJSONRepair asks the model to fix its own malformed JSON.
	PromptJSONRepair = "json_repair"

	// PromptTitle generates a short document title during ingestion.
	PromptTitle = "title"
)

// PromptStore loads prompt templates, allowing user customisation.
// Implementations fall back to embedded defaults when a prompt has not
// been customised.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)
}
