// Package engine ties approved paths to persisted execution runs. It starts
// a run from an approved request, walks it forward through the question
// selector, and keeps every snapshot in a pluggable store so a run can be
// resumed after the process restarts.
package engine
