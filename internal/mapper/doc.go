// Package mapper is the public surface of the concept mapping engine.
//
// A Mapper owns one catalog, an optional synonym index, a matching engine,
// a ranker and a result cache. MapConcepts fans a batch of mentions out over
// a bounded worker pool; each mention is answered from the cache or by
// matching and ranking, and only complete rankings are cached.
//
// Mapping never fails. A mention with no candidates, an empty text, or one
// removed by the filter maps to an empty result slice.
package mapper
