// Package scoring provides the pure comparison functions used to rank tracks.
//
// # Functions
//
//   - [Distance]: Euclidean distance, lower is more similar
//   - [Similarity]: cosine similarity in [-1, 1], higher is more similar
//   - [Mean]: component-wise mean of a non-empty group of tracks
//   - [GroupDistance]: distance between two group means
//   - [Compare]: distance plus similarity for a pair, as stored in the pair cache
//
// # Usage
//
//	d, err := scoring.Distance(a, b)
//	s, err := scoring.Similarity(a, b)
package scoring
