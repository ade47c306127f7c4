package services

// AccessPolicy decides which principals may act on which users. Handlers consult
// it before calling UserService; the stores know nothing about callers.
type AccessPolicy struct{}

// NewAccessPolicy creates an AccessPolicy.
func NewAccessPolicy() *AccessPolicy {
	return &AccessPolicy{}
}

// CanModifyUser allows a user to update their own record and admins to update any.
func (AccessPolicy) CanModifyUser(p Principal, userID int) error {
	if p.UserID == userID || p.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

// CanDeleteUser allows admins only.
func (AccessPolicy) CanDeleteUser(p Principal) error {
	if p.IsAdmin() {
		return nil
	}
	return ErrForbidden
}

// CanViewProfile allows a user to view their own profile and admins to view any.
func (AccessPolicy) CanViewProfile(p Principal, userID int) error {
	if p.UserID == userID || p.IsAdmin() {
		return nil
	}
	return ErrForbidden
}
