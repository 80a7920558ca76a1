// Package schedule holds the pure timetable logic shared by the admin session
// list, the public schedule and bulk imports: the comparable datetime key,
// stable slot ordering, display order normalization and import reconciliation.
//
// Nothing in this package performs I/O; callers pass in the festival's
// sessions and persist whatever the functions return.
package schedule
