package consent

// OfflineAccessScope is the well-known scope value requesting a refresh
// token.
const OfflineAccessScope = "offline_access"

// Options holds deployment-level consent settings. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	// EnableOfflineAccess controls whether the offline-access scope may be
	// shown and granted. When false, the scope is stripped from submissions
	// even if the user checked it.
	EnableOfflineAccess bool

	// Display strings for the synthetic offline-access scope item.
	OfflineAccessDisplayName string
	OfflineAccessDescription string

	// Form-level validation messages.
	MustChooseOneError    string
	InvalidSelectionError string
}

// DefaultOptions returns the standard consent settings.
func DefaultOptions() Options {
	return Options{
		EnableOfflineAccess:      true,
		OfflineAccessDisplayName: "Offline Access",
		OfflineAccessDescription: "Access to your applications and resources, even when you are offline",
		MustChooseOneError:       "You must pick at least one permission",
		InvalidSelectionError:    "Invalid selection",
	}
}
