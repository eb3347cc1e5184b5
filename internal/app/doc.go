// Package app wires the compiler pipeline behind a single façade: load
// sources, lower them, then print the lowered program or run one scope.
// The CLI owns flag parsing; app owns everything after.
package app
