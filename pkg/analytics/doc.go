// Package analytics records registry activity events and serves the
// cursor-paginated activity feed.
//
// Events are written best-effort: a failed insert is logged, never
// propagated, because analytics must not fail a publish. The feed paginates
// by created_at cursor rather than page number so a scrolling client never
// skips or repeats entries while new events arrive.
package analytics
