// Package dates resolves a best-effort date for an evidence record from a
// ranked list of raw candidate strings.
//
// Candidates are tried strictly in source-rank order and the first one that
// parses wins; results from different sources are never combined. The
// precision of the result is fixed by the pattern that matched: a full date
// yields day precision, a year and month yields month precision, a bare year
// yields year precision.
package dates
