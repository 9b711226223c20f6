package consent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResources() Resources {
	return Resources{
		IdentityScopes: []IdentityScope{
			{Name: "openid", DisplayName: "Your user identifier", Required: true},
			{Name: "profile", DisplayName: "User profile", Description: "Your name and picture"},
			{Name: "email"},
		},
		ParsedScopes: []ParsedScope{
			{Name: "api", Value: "api"},
			{Name: "resource", Value: "resource:42", Parameter: "42"},
		},
		APIScopes: []APIScope{
			{Name: "api", DisplayName: "API", Description: "Full API access"},
			{Name: "resource"},
		},
		RawScopeValues: []string{"openid", "profile", "email", "api", "resource:42"},
	}
}

func TestBuildScopeViewsFreshRequestChecksEverything(t *testing.T) {
	identity, api := BuildScopeViews(testResources(), nil, DefaultOptions())

	for _, view := range append(identity, api...) {
		assert.True(t, view.Checked, "scope %q should default to checked", view.Value)
	}
}

func TestBuildScopeViewsPriorSelection(t *testing.T) {
	tests := []struct {
		name    string
		prior   []string
		checked map[string]bool
	}{
		{
			name:  "empty selection only keeps required",
			prior: []string{},
			checked: map[string]bool{
				"openid": true, "profile": false, "email": false,
				"api": false, "resource:42": false,
			},
		},
		{
			name:  "selection keeps exactly the chosen values",
			prior: []string{"profile", "resource:42"},
			checked: map[string]bool{
				"openid": true, "profile": true, "email": false,
				"api": false, "resource:42": true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, api := BuildScopeViews(testResources(), NewPriorSelection(tt.prior), DefaultOptions())

			for _, view := range append(identity, api...) {
				assert.Equal(t, tt.checked[view.Value], view.Checked, "scope %q", view.Value)
			}
		})
	}
}

func TestBuildScopeViewsDisplayNames(t *testing.T) {
	identity, api := BuildScopeViews(testResources(), nil, DefaultOptions())

	require.Len(t, identity, 3)
	assert.Equal(t, "User profile", identity[1].DisplayName)
	// No display name falls back to the canonical name.
	assert.Equal(t, "email", identity[2].DisplayName)

	require.Len(t, api, 2)
	assert.Equal(t, "API", api[0].DisplayName)
	// A parameterized scope appends its parameter to the display name.
	assert.Equal(t, "resource:42", api[1].DisplayName)
	assert.Equal(t, "resource:42", api[1].Value)
}

func TestBuildScopeViewsDropsUnknownAPIScope(t *testing.T) {
	res := testResources()
	res.ParsedScopes = append(res.ParsedScopes, ParsedScope{Name: "ghost", Value: "ghost"})

	_, api := BuildScopeViews(res, nil, DefaultOptions())

	for _, view := range api {
		assert.NotEqual(t, "ghost", view.Value)
	}
	assert.Len(t, api, 2)
}

func TestBuildScopeViewsOrderingPreserved(t *testing.T) {
	identity, api := BuildScopeViews(testResources(), nil, DefaultOptions())

	gotIdentity := []string{identity[0].Value, identity[1].Value, identity[2].Value}
	if diff := cmp.Diff([]string{"openid", "profile", "email"}, gotIdentity); diff != "" {
		t.Errorf("identity scope order mismatch (-want +got):\n%s", diff)
	}

	gotAPI := []string{api[0].Value, api[1].Value}
	if diff := cmp.Diff([]string{"api", "resource:42"}, gotAPI); diff != "" {
		t.Errorf("api scope order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildScopeViewsOfflineAccess(t *testing.T) {
	res := testResources()
	res.OfflineAccess = true
	opts := DefaultOptions()

	t.Run("appended last and emphasized", func(t *testing.T) {
		_, api := BuildScopeViews(res, nil, opts)

		require.Len(t, api, 3)
		offline := api[len(api)-1]
		assert.Equal(t, OfflineAccessScope, offline.Value)
		assert.Equal(t, opts.OfflineAccessDisplayName, offline.DisplayName)
		assert.Equal(t, opts.OfflineAccessDescription, offline.Description)
		assert.True(t, offline.Emphasize)
		assert.True(t, offline.Checked)
	})

	t.Run("follows the prior-selection rule", func(t *testing.T) {
		_, api := BuildScopeViews(res, NewPriorSelection([]string{"api"}), opts)
		assert.False(t, api[len(api)-1].Checked)

		_, api = BuildScopeViews(res, NewPriorSelection([]string{OfflineAccessScope}), opts)
		assert.True(t, api[len(api)-1].Checked)
	})

	t.Run("absent when disabled", func(t *testing.T) {
		disabled := opts
		disabled.EnableOfflineAccess = false

		_, api := BuildScopeViews(res, nil, disabled)
		require.Len(t, api, 2)
	})

	t.Run("absent when not requested", func(t *testing.T) {
		_, api := BuildScopeViews(testResources(), nil, opts)
		require.Len(t, api, 2)
	})
}

func TestBuildScopeViewsRequiredAlwaysChecked(t *testing.T) {
	res := Resources{
		IdentityScopes: []IdentityScope{{Name: "openid", Required: true}},
		ParsedScopes:   []ParsedScope{{Name: "api", Value: "api"}},
		APIScopes:      []APIScope{{Name: "api", Required: true}},
	}

	identity, api := BuildScopeViews(res, NewPriorSelection(nil), DefaultOptions())

	require.Len(t, identity, 1)
	require.Len(t, api, 1)
	assert.True(t, identity[0].Checked)
	assert.True(t, api[0].Checked)
}
