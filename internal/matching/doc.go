// Package matching runs the strategy chain that turns a concept into raw
// candidates: exact description lookup, synonym lookup, then fuzzy token
// matching over the catalog's inverted index.
//
// Every strategy runs for every concept. Lower-priority strategies can
// surface additional valid codes, and a code found by several strategies is
// later boosted by the ranker.
package matching
