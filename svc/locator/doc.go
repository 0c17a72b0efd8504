// Package locator finds a test email in a signed-in webmail page and opens it.
//
// WaitForEmail searches the mailbox for a subject token until the message body is
// shown, sleeping between attempts because delivery lags behind sending. The search
// loop has a deadline on the injected clock and is additionally raced against a wall
// clock guard, so a hung browser call cannot hold a worker slot forever.
//
//	loc := locator.New(executor, locator.WithAgent(agent))
//	if err := loc.WaitForEmail(ctx, page, mailbox.Gmail, "run-5f1c"); err != nil {
//		// errors.Is(err, mailbox.ErrEmailNotFound) when the message never arrived
//	}
//
// RevealImages clicks the provider's "show images" control where one exists.
package locator
