// Package ui implements the live playlist view using bubbletea's Elm architecture.
//
// A run moves through two views:
//  1. [RunView] : spinner, step progress bar and the picks queued so far
//  2. [ResultView] : stop reason and a scrollable list of every pick
//
// The [Model] starts the run in a goroutine and receives its [tasks.ProgressUpdate] values through a channel, one
// message at a time, until the channel closes and the final result arrives as a completion message.
//
// Pressing q or ctrl+c while the run is active cancels it; the view waits for the engine to stop before quitting so
// the partial result can still be reported.
package ui
