// Package collections provides generic data structures for Go applications.
//
// This package includes ArrayList (and its synchronized variant), a
// generic Iterator, and the Collection/List interfaces they implement,
// all supporting generics for type-safe usage.
package collections
