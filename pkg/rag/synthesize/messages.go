package synthesize

// Fixed answer-path strings. The canned responses are served when a
// dependency degrades; the disclaimer is appended to every answer, canned or
// synthesized, exactly once.
const (
	Disclaimer = "This answer is AI-generated from retrieved patient records and " +
		"is not a substitute for clinical judgment. Verify against the primary record before acting."

	systemPrompt = "You are a clinical documentation assistant. Answer the clinician's question " +
		"using ONLY the patient record excerpts provided below. Cite which source each statement " +
		"comes from using the [Source N] labels. If the excerpts do not contain the answer, say so " +
		"plainly. Never invent findings, medications, or dates. Be concise and factual."

	cannedNoRecords = "No matching records were found for this patient and question. " +
		"Try rephrasing the question or consult the patient chart directly."

	cannedUnreliable = "Unable to generate a reliable answer from the available records. " +
		"Please consult the patient chart directly."

	cannedTimeout = "The answer service took too long to respond. Please try again. " +
		"No answer was generated for this question."

	cannedBusy = "The answer service is busy right now. Please try again shortly. " +
		"No answer was generated for this question."
)

// Degradation reasons recorded on the answer and in audit details.
const (
	ReasonNoMatchingRecords = "no_matching_records"
	ReasonEmptyOutput       = "llm_empty_output"
	ReasonTimeout           = "llm_timeout"
	ReasonRateLimited       = "llm_rate_limited"
	ReasonQuestionTooShort  = "question_too_short"
)

// minUsableOutput is the shortest provider output accepted as a real answer.
// Anything below it degrades to the canned unreliable response.
const minUsableOutput = 20
