// Package dedup finds evidence records that describe the same item and
// folds each group into one canonical record.
//
// Two live records of the same namespace are duplicates when any of their
// identifier values (temporary id, final id, display number) are equal,
// compared across fields after trimming and case folding. Duplicates are
// transitive. Merged-away records are kept with Removed set so that every
// decision stays visible in the catalog.
package dedup
