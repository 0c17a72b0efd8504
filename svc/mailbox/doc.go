// Package mailbox holds the vocabulary shared by the capture pipeline: the supported
// webmail providers and browser engines, the UI profile of each provider and the error
// taxonomy steps report with.
package mailbox
