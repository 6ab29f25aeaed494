package summarizer

// Temperature is the sampling temperature sent to every provider.
const Temperature = 0.3

const (
	systemPrompt = "You summarize articles clearly and concisely."

	userPromptPrefix = "Summarize the following article in 5 short bullet points in simple English. " +
		"Focus on the main ideas.\n\n"
)

func userPrompt(text string) string {
	return userPromptPrefix + text
}
