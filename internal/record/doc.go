// Package record owns the in-memory cohort graph.
//
// Ownership boundary:
// - cohort -> students -> courses -> grades, exclusive, tree-shaped
// - derived averages (course mean, coefficient-weighted general average)
// - ingestion-time course catalog
//
// Averages are recomputed on every grade addition and never stored stale.
package record
