package consent

// ViewModel is everything the consent form needs to render, for both the
// interactive and the device flow.
type ViewModel struct {
	ReturnURL string
	UserCode  string

	ClientName           string
	ClientURL            string
	ClientLogoURL        string
	AllowRememberConsent bool

	RememberConsent bool
	Description     string

	IdentityScopes []ScopeView
	APIScopes      []ScopeView

	// Error is the form-level validation message, empty on a fresh render.
	Error string
}

// BuildViewModel assembles the consent form model from a resolved request.
// A nil input means a fresh render: remember defaults to true and every
// scope defaults to checked. After a failed submission the input's selected
// scopes drive the checkboxes instead.
func BuildViewModel(authCtx *AuthorizationContext, sel Selector, in *Input, opts Options) *ViewModel {
	vm := &ViewModel{
		ReturnURL:            sel.ReturnURL,
		UserCode:             sel.UserCode,
		ClientName:           authCtx.Client.DisplayName(),
		ClientURL:            authCtx.Client.URL,
		ClientLogoURL:        authCtx.Client.LogoURL,
		AllowRememberConsent: authCtx.Client.AllowRememberConsent,
		RememberConsent:      true,
	}

	var prior PriorSelection
	if in != nil {
		vm.RememberConsent = in.RememberConsent
		vm.Description = in.Description
		prior = NewPriorSelection(in.ScopesConsented)
	}

	vm.IdentityScopes, vm.APIScopes = BuildScopeViews(authCtx.Resources, prior, opts)

	return vm
}
