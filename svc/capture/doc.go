// Package capture screenshots an opened email and publishes the image.
//
// Each capture emulates a color scheme, snaps the message body element, uploads
// the PNG to object storage under screenshots/{jobId}-{light|dark}.png with public
// read access and records a store.Screenshot row carrying the returned URL.
package capture
