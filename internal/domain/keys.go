package domain

// StorageKeys names every key the ledger core touches in the key-value
// store. Injected rather than ambient so tests and deployments can
// relocate state without collisions.
type StorageKeys struct {
	// Ledger holds the serialized record list (one JSON blob).
	Ledger string
	// FilterSnapshot holds the last applied FilterSnapshot.
	FilterSnapshot string

	// Identity keys are written by the authentication flow and only
	// read here, to scope queries and stamp new records.
	OwnerName  string
	OwnerEmail string
	OwnerPhoto string
	// IDToken optionally holds the raw Google ID token; used as an
	// identity fallback when the plain keys are absent.
	IDToken string
}

// DefaultStorageKeys returns the key layout used by the mobile app.
func DefaultStorageKeys() StorageKeys {
	return StorageKeys{
		Ledger:         "FLIX_EXPENSES",
		FilterSnapshot: "expenseFilterSnapshot",
		OwnerName:      "googleUserName",
		OwnerEmail:     "googleUserEmail",
		OwnerPhoto:     "googleUserPhoto",
		IDToken:        "googleIdToken",
	}
}
