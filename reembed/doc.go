// Package reembed provides functionality for reembedding stored chunks and
// concepts with new or updated embedding models.
//
// This package supports batch processing, progress tracking, retry logic
// with exponential backoff, and vector normalization to ensure
// compatibility with cosine similarity search.
package reembed
