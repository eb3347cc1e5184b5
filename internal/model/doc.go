// Package model defines the desugared rules-program model: scopes, their
// variable declarations and subscope calls, and the possibly-many competing
// rules collected per definition site.
//
// The model is produced by the loader and consumed read-only by the lower
// package, which collapses every definition site into a single synthesized
// expression of the target calculus.
package model
