// Package mock provides test double implementations of the ai service
// interfaces. The mocks run without network access and behave
// deterministically: the embedder derives stable vectors from text hashes,
// the extractor performs simple word extraction, and every double accepts
// injected behavior via function fields and reports call counts.
package mock
