package openai

import (
	"fmt"
	"strings"
)

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "primary_concepts": {
      "type": "array",
      "items": {"type": "string", "pattern": "^[a-z0-9]+( [a-z0-9]+)*$"}
    },
    "technical_terms": {
      "type": "array",
      "items": {"type": "string"}
    },
    "categories": {
      "type": "array",
      "items": {"type": "string"}
    },
    "related": {
      "type": "object",
      "additionalProperties": {"type": "array", "items": {"type": "string"}}
    },
    "summary": {"type": "string"},
    "metadata": {
      "type": "object",
      "properties": {
        "title": {"type": "string"},
        "author": {"type": "string"},
        "year": {"type": "integer"},
        "publisher": {"type": "string"},
        "identifier": {"type": "string"}
      },
      "additionalProperties": false
    }
  },
  "required": ["primary_concepts", "technical_terms", "categories", "summary"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `Analyze the given document text and return its concept structure as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- primary_concepts: the main subjects the document is about, lowercase, 1-3 words each, at most %d entries,
  ordered from most to least central.
- technical_terms: domain vocabulary the document uses or defines, lowercase.
- categories: broad subject areas the document belongs to (e.g. "distributed systems", "software engineering"),
  lowercase, at most 5 entries.
- related: for each primary concept that is discussed together with other concepts, list those other concepts.
  Keys must be primary concept names.
- summary: 2-4 sentences describing what the document covers. Plain prose, no markdown.
- metadata: include only when the text itself states a title, author, year, publisher or identifier
  (e.g. an ISBN or DOI). Omit the field entirely when nothing is stated. Do not guess.
- Include only concepts the text explicitly mentions or clearly implies. Do not hallucinate.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "Raft is a consensus algorithm for managing a replicated log. It separates leader election,
log replication and safety."
Output:
{
  "primary_concepts": ["consensus", "replicated log", "raft"],
  "technical_terms": ["leader election", "log replication"],
  "categories": ["distributed systems"],
  "related": {"consensus": ["leader election", "log replication"]},
  "summary": "Describes the Raft consensus algorithm and how it manages a replicated log by separating leader election, log replication and safety."
}`

const summaryPromptTemplate = `Write a one-sentence summary for each of the listed subject categories, describing
what a document filed under that category is typically about.

Output ONLY a valid JSON object mapping each category name to its summary. Do not include any preamble,
explanation, greeting, or acknowledgment. Use every listed name as a key exactly as written. No trailing
commas, no extra keys, no text outside the object.

Categories:
%s`

// buildExtractionPrompt creates the extraction system prompt.
func buildExtractionPrompt(maxConcepts int) string {
	return fmt.Sprintf(extractionPromptTemplate, extractionResponseSchema, maxConcepts)
}

// buildSummaryPrompt creates the category summary prompt for a name list.
func buildSummaryPrompt(names []string) string {
	return fmt.Sprintf(summaryPromptTemplate, "- "+strings.Join(names, "\n- "))
}
