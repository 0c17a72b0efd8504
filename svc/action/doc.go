// Package action wraps pipeline steps in a primary/fallback envelope. The primary path
// is selector-driven automation; the fallback is usually an AI agent instruction.
package action
