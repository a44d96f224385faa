// Package models declares the Person, Animal and Movie records, their join
// table, the JSON address column and the Person after-insert hook whose
// mutation of the inserted record is what the reproduction observes.
package models
