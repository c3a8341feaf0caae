package domain

// OwnerIdentity is the authenticated user the ledger core acts for.
// Written by the (external) authentication flow, read here to scope
// queries and stamp new records.
type OwnerIdentity struct {
	Name  string
	Email string
	Photo string
}

// Label is the display name: name, else email, else a placeholder.
func (o OwnerIdentity) Label() string {
	if o.Name != "" {
		return o.Name
	}
	if o.Email != "" {
		return o.Email
	}
	return "Unknown User"
}

// Stamp is the value written to a record's owner field. The email is
// authoritative when present so records group correctly across devices
// that know the user under different display names.
func (o OwnerIdentity) Stamp() string {
	if o.Email != "" {
		return o.Email
	}
	return o.Label()
}
