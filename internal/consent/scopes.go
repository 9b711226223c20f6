package consent

// ScopeView is a single user-facing scope row on the consent form.
type ScopeView struct {
	Value       string
	DisplayName string
	Description string
	Emphasize   bool
	Required    bool
	Checked     bool
}

// BuildScopeViews turns the request's validated resources into display-ready
// scope rows. Identity scopes come first, then API scopes in request order,
// then the synthetic offline-access row when the request asks for it and the
// deployment allows it. Parsed scopes whose API descriptor is unknown are
// dropped: they cannot be shown and cannot be granted.
func BuildScopeViews(res Resources, prior PriorSelection, opts Options) (identity, api []ScopeView) {
	identity = make([]ScopeView, 0, len(res.IdentityScopes))
	for _, scope := range res.IdentityScopes {
		identity = append(identity, identityScopeView(scope, prior.Checked(scope.Name)))
	}

	api = make([]ScopeView, 0, len(res.ParsedScopes))
	for _, parsed := range res.ParsedScopes {
		apiScope := res.FindAPIScope(parsed.Name)
		if apiScope == nil {
			continue
		}
		api = append(api, apiScopeView(parsed, *apiScope, prior.Checked(parsed.Value)))
	}

	if opts.EnableOfflineAccess && res.OfflineAccess {
		api = append(api, offlineAccessView(opts, prior.Checked(OfflineAccessScope)))
	}

	return identity, api
}

func identityScopeView(scope IdentityScope, checked bool) ScopeView {
	displayName := scope.DisplayName
	if displayName == "" {
		displayName = scope.Name
	}

	return ScopeView{
		Value:       scope.Name,
		DisplayName: displayName,
		Description: scope.Description,
		Emphasize:   scope.Emphasize,
		Required:    scope.Required,
		Checked:     checked || scope.Required,
	}
}

func apiScopeView(parsed ParsedScope, scope APIScope, checked bool) ScopeView {
	displayName := scope.DisplayName
	if displayName == "" {
		displayName = scope.Name
	}
	if parsed.Parameter != "" {
		displayName += ":" + parsed.Parameter
	}

	return ScopeView{
		Value:       parsed.Value,
		DisplayName: displayName,
		Description: scope.Description,
		Emphasize:   scope.Emphasize,
		Required:    scope.Required,
		Checked:     checked || scope.Required,
	}
}

func offlineAccessView(opts Options, checked bool) ScopeView {
	return ScopeView{
		Value:       OfflineAccessScope,
		DisplayName: opts.OfflineAccessDisplayName,
		Description: opts.OfflineAccessDescription,
		Emphasize:   true,
		Checked:     checked,
	}
}
