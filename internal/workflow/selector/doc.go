// Package selector walks an execution state along its approved path. Each
// call hands out the next batch of unanswered questions at the cursor, or
// moves the cursor one step forward when the current node is exhausted. The
// walk never leaves the path chosen at approval time.
package selector
