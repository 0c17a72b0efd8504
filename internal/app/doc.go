// Package app builds the process-wide dependencies shared by the worker and the
// maintenance CLI from environment configuration.
//
// Every constructor returns its dependency explicitly; nothing is kept in package
// state, so each binary decides what it wires and in which order.
package app
