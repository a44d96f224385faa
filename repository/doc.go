// Package repository provides a generic repository abstraction built on Bun
// for CRUD operations, insert-and-fetch, lookups, pagination and transactions.
package repository
