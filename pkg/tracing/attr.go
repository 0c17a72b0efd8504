package tracing

import "go.opentelemetry.io/otel/attribute"

func RunID(id string) attribute.KeyValue { return attribute.String("run.id", id) }
func JobID(id string) attribute.KeyValue { return attribute.String("job.id", id) }
func Client(c string) attribute.KeyValue { return attribute.String("mailbox.client", c) }
func Engine(e string) attribute.KeyValue { return attribute.String("browser.engine", e) }
func Attempt(n int) attribute.KeyValue { return attribute.Int("job.attempt", n) }
func DarkMode(b bool) attribute.KeyValue { return attribute.Bool("capture.dark", b) }
