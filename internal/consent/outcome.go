package consent

// Status tags a consent outcome.
type Status int

const (
	// StatusGranted means the user approved a non-empty scope set.
	StatusGranted Status = iota

	// StatusDenied means the user refused the request outright.
	StatusDenied

	// StatusInvalid means the submission failed validation and the form
	// should be redisplayed.
	StatusInvalid

	// StatusNotFound means the selector did not resolve to a live
	// authorization request (expired, replayed, or forged).
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusGranted:
		return "granted"
	case StatusDenied:
		return "denied"
	case StatusInvalid:
		return "invalid"
	case StatusNotFound:
		return "not_found"
	}
	return "unknown"
}

// Input is the user's raw form submission. Exactly one of ReturnURL or
// UserCode selects the flow.
type Input struct {
	ReturnURL       string
	UserCode        string
	Button          string
	ScopesConsented []string
	RememberConsent bool
	Description     string
}

// Selector derives the request selector from the submission.
func (in Input) Selector() Selector {
	if in.UserCode != "" {
		return Selector{UserCode: in.UserCode}
	}
	return Selector{ReturnURL: in.ReturnURL}
}

// Outcome is the decision derived from a submission. Scopes, Remember and
// Description are only meaningful when Status is StatusGranted;
// ValidationError only when Status is StatusInvalid.
type Outcome struct {
	Status          Status
	Scopes          []string
	Remember        bool
	Description     string
	ValidationError string
}

// Decided reports whether the outcome is a final grant or denial that must
// be persisted by the interaction engine.
func (o Outcome) Decided() bool {
	return o.Status == StatusGranted || o.Status == StatusDenied
}

// Result tells the surrounding handler what to do after processing a
// submission: redirect, re-render the form, or show a terminal error page.
type Result struct {
	Outcome Outcome

	// RedirectURL is set for decided interactive submissions. Device-flow
	// submissions never redirect; the handler shows a status page instead.
	RedirectURL string

	// NativeClient is true when the target client consumes the redirect
	// through a custom URI scheme. The handler must render a transitional
	// loading page instead of issuing a raw 302, so the redirect URI is not
	// handed to a custom-scheme handler mid-navigation.
	NativeClient bool

	// View is the rebuilt form model when the submission failed validation.
	View *ViewModel
}
