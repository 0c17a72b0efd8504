package mailbox

import "fmt"

// MFAKind is how a provider delivers its second factor.
type MFAKind string

const (
	MFATOTP MFAKind = "totp"
	MFASMS  MFAKind = "sms"
)

// Selectors locate the provider UI elements the pipeline touches.
type Selectors struct {
	// Marker is visible only once the mailbox is loaded for a signed-in user.
	Marker      string
	SearchInput string
	ResultItem  string
	MessageBody string
	// RevealImages is the "show images" control; empty when the provider loads images.
	RevealImages string

	Identity     string
	IdentityNext string
	// PasskeyBypass leads from a passkey prompt to the password form; empty when unused.
	PasskeyBypass string
	Password      string
	PasswordNext  string
	MFACode       string
	MFASubmit     string
	// MFAError appears when a submitted code was rejected.
	MFAError string
}

// Profile describes how to drive one provider's web UI.
type Profile struct {
	Client     Client
	LoginURL   string
	MailboxURL string
	MFA        MFAKind
	// CenterClick marks custom widgets that ignore synthetic element clicks and
	// only respond to mouse clicks at their center followed by typed keystrokes.
	CenterClick bool
	Selectors   Selectors
}

var profiles = map[Client]Profile{
	Gmail: {
		Client:     Gmail,
		LoginURL:   "https://accounts.google.com/ServiceLogin?service=mail&continue=https://mail.google.com/mail/",
		MailboxURL: "https://mail.google.com/mail/u/0/#inbox",
		MFA:        MFATOTP,
		Selectors: Selectors{
			Marker:        `input[aria-label="Search mail"]`,
			SearchInput:   `input[aria-label="Search mail"]`,
			ResultItem:    `div[role="main"] tr.zA`,
			MessageBody:   `div.a3s`,
			Identity:      `input[type="email"]`,
			IdentityNext:  `#identifierNext`,
			PasskeyBypass: `button:has-text("Try another way")`,
			Password:      `input[type="password"][name="Passwd"]`,
			PasswordNext:  `#passwordNext`,
			MFACode:       `input[name="totpPin"]`,
			MFASubmit:     `#totpNext`,
			MFAError:      `div[aria-live="assertive"]:has-text("Wrong code")`,
		},
	},
	Outlook: {
		Client:     Outlook,
		LoginURL:   "https://login.live.com/login.srf",
		MailboxURL: "https://outlook.live.com/mail/0/",
		MFA:        MFATOTP,
		Selectors: Selectors{
			Marker:       `#topSearchInput`,
			SearchInput:  `#topSearchInput`,
			ResultItem:   `div[role="listbox"] div[role="option"]`,
			MessageBody:  `div[aria-label="Message body"]`,
			Identity:     `input[name="loginfmt"]`,
			IdentityNext: `#idSIButton9`,
			Password:     `input[name="passwd"]`,
			PasswordNext: `#idSIButton9`,
			MFACode:      `input[name="otc"]`,
			MFASubmit:    `#idSubmit_SAOTCC_Continue`,
			MFAError:     `#idSpan_SAOTCC_Error_OTC`,
		},
	},
	Yahoo: {
		Client:     Yahoo,
		LoginURL:   "https://login.yahoo.com/",
		MailboxURL: "https://mail.yahoo.com/d/folders/1",
		MFA:        MFATOTP,
		Selectors: Selectors{
			Marker:       `input[aria-label="Search Mail"]`,
			SearchInput:  `input[aria-label="Search Mail"]`,
			ResultItem:   `a[data-test-id="message-list-item"]`,
			MessageBody:  `div[data-test-id="message-view-body-content"]`,
			RevealImages: `button[data-test-id="show-images-button"]`,
			Identity:     `#login-username`,
			IdentityNext: `#login-signin`,
			Password:     `#login-passwd`,
			PasswordNext: `#login-signin`,
			MFACode:      `#verification-code-field`,
			MFASubmit:    `#verify-code-button`,
			MFAError:     `.error-msg`,
		},
	},
	AOL: {
		Client:     AOL,
		LoginURL:   "https://login.aol.com/",
		MailboxURL: "https://mail.aol.com/d/folders/1",
		MFA:        MFATOTP,
		Selectors: Selectors{
			Marker:       `input[aria-label="Search Mail"]`,
			SearchInput:  `input[aria-label="Search Mail"]`,
			ResultItem:   `a[data-test-id="message-list-item"]`,
			MessageBody:  `div[data-test-id="message-view-body-content"]`,
			RevealImages: `button[data-test-id="show-images-button"]`,
			Identity:     `#login-username`,
			IdentityNext: `#login-signin`,
			Password:     `#login-passwd`,
			PasswordNext: `#login-signin`,
			MFACode:      `#verification-code-field`,
			MFASubmit:    `#verify-code-button`,
			MFAError:     `.error-msg`,
		},
	},
	ICloud: {
		Client:      ICloud,
		LoginURL:    "https://www.icloud.com/mail/",
		MailboxURL:  "https://www.icloud.com/mail/",
		MFA:         MFASMS,
		CenterClick: true,
		Selectors: Selectors{
			Marker:       `ui-search-field`,
			SearchInput:  `ui-search-field`,
			ResultItem:   `.thread-list-item`,
			MessageBody:  `.mail-message-defaults`,
			Identity:     `#account_name_text_field`,
			IdentityNext: `#sign-in`,
			Password:     `#password_text_field`,
			PasswordNext: `#sign-in`,
			MFACode:      `.form-security-code-inputs input`,
			MFAError:     `.form-message-wrapper .is-error`,
		},
	},
}

// ProfileFor returns the UI profile of a provider.
func ProfileFor(c Client) (Profile, error) {
	p, ok := profiles[c]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownClient, c)
	}
	return p, nil
}
