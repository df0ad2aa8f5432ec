// Package store persists the financial records of each owner.
//
// Every backend implements RecordStore with full-replace semantics: an
// upload replaces everything previously stored for that owner and never
// touches other owners. List returns records in ascending date order.
package store
