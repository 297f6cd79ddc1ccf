package auth

// RequireIdentity is the first half of the gate every protected operation
// applies: a nil identity is rejected, never treated as anonymous.
func RequireIdentity(id *Identity) (Identity, error) {
	if id == nil {
		return Identity{}, ErrMissingCredential
	}
	return *id, nil
}

// RequireOwner is the second half: the caller must own the resource.
func RequireOwner(id Identity, ownerID int64) error {
	if id.UserID != ownerID {
		return ErrNotOwned
	}
	return nil
}
