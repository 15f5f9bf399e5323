// Package item provides the item store: flat id-keyed records with
// create, read, full-replace update, and delete.
//
// Store wraps a Repository (memory, SQLite or Redis), generates ids, and
// emits an Event to an EventSink after each successful mutation. Access
// control is the caller's job; any authenticated user may touch any item.
package item
