// Package artifacts implements the artifact stores and date payload
// providers the docket CLI binds evidence records to.
//
// FSStore renames files below a root directory. S3Store renames objects in
// a bucket. RetryingStore wraps either with bounded exponential retry.
// SidecarProvider reads ranked date strings from a YAML file stored next to
// each artifact.
package artifacts
