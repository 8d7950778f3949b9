package openai

import "fmt"

const recapResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "summary": {
      "type": "string"
    },
    "article": {
      "type": "string"
    },
    "topics": {
      "type": "array",
      "items": {"type": "string"}
    },
    "decisions": {
      "type": "array",
      "items": {"type": "string"}
    },
    "public_comments": {
      "type": "array",
      "items": {"type": "string"}
    }
  },
  "required": ["summary", "article", "topics", "decisions", "public_comments"],
  "additionalProperties": false
}`

const recapPromptTemplate = `You summarize local government meetings for residents who did not attend.
You will be given the transcript of a council or committee meeting.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- "summary" is one short paragraph (3-5 sentences) covering the meeting's main outcomes.
- "article" is a longer plain-language writeup (several paragraphs) for a general audience. Avoid
  procedural jargon; explain what was decided and what it means for residents.
- "topics" lists the subjects discussed, most significant first, 3-8 entries.
- "decisions" lists votes taken and items approved, rejected, or tabled. Include vote counts when
  stated in the transcript. Use [] if no decisions were made.
- "public_comments" lists the themes raised during public comment. Use [] if there was no public
  comment period.
- Report only what the transcript supports. Do not speculate or invent agenda items.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text
  outside the object.`

// buildRecapSystemPrompt creates the system prompt with the response schema embedded.
func buildRecapSystemPrompt() string {
	return fmt.Sprintf(recapPromptTemplate, recapResponseSchema)
}

// buildRecapUserPrompt frames the transcript with its meeting title.
func buildRecapUserPrompt(title, transcript string) string {
	return fmt.Sprintf("Meeting: %s\n\nTranscript:\n%s", title, transcript)
}
