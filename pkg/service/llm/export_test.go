package llm

var (
	ClaudeMessages   = claudeMessages
	RenderTranscript = renderTranscript
)
