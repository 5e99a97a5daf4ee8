// Package openai implements the ai service interfaces over OpenAI-compatible
// HTTP APIs (OpenAI itself, Ollama, LocalAI, vLLM). Extraction and
// summarization use JSON mode with a repair-and-retry loop, since smaller
// local models routinely emit slightly broken JSON.
package openai
