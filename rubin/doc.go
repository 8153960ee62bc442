// Package rubin combines per-imputation prediction curves into one pooled
// curve with Rubin's rules.
//
// At every grid row, independently:
//
//	within  = mean(se_i²)
//	between = Σ (pred_i - mean)² / (M - 1)        (0 when M = 1)
//	total   = within + between + between/M
//	pred    = mean(pred_i)
//	se      = sqrt(total)
//
// Confidence bounds are pred ± q·se. The default quantile q is the
// standard-normal one at (1-level)/2 and its complement. WithStudentT switches
// to a Student-t quantile with Rubin's degrees of freedom, optionally with the
// Barnard–Rubin small-sample adjustment; it is opt-in and never the default.
//
// Pooling requires every curve to share an identical grid, and is invariant to
// the order of the input curves.
package rubin
