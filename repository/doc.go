// Package repository provides a generic repository over a MongoDB collection
// handle: lookups by identifier, listing, insertion, removal, whitelisted
// field updates and pagination.
package repository
