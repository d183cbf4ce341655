package carrier

import "sync"

// Identity is the store owner's own carrier account. There is logically one
// per deployment; it is constructed explicitly and shared by the admin
// handlers and the reconciliation poller. All access goes through the mutex:
// admin login/verify/logout mutate it, and the poller deauthenticates it when
// the vendor stops accepting the token.
type Identity struct {
	mu            sync.Mutex
	cred          Credential
	authenticated bool
}

// NewIdentity returns an unauthenticated identity.
func NewIdentity() *Identity {
	return &Identity{}
}

// BeginLogin records the state of a started login, discarding any previous
// authentication for the identity.
func (i *Identity) BeginLogin(phone, deviceID, continuationID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cred = Credential{Phone: phone, DeviceID: deviceID, ContinuationID: continuationID}
	i.authenticated = false
}

// Pending returns the in-progress login credential, or false when no login
// has been started.
func (i *Identity) Pending() (Credential, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.cred.ContinuationID == "" {
		return Credential{}, false
	}
	return i.cred, true
}

// Authenticate stores the access token obtained from OTP verification and
// marks the identity usable. It returns the completed credential.
func (i *Identity) Authenticate(accessToken string) Credential {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cred.AccessToken = accessToken
	i.authenticated = true
	return i.cred
}

// Snapshot returns a copy of the credential and whether the identity is
// currently authenticated. Callers use the copy for vendor calls so the
// identity lock is never held across network I/O.
func (i *Identity) Snapshot() (Credential, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cred, i.authenticated
}

// Phone returns the phone of the identity, empty if none has been set.
func (i *Identity) Phone() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.cred.Phone
}

// Invalidate flips the identity to unauthenticated, keeping the phone so
// admin-status can still report which account went stale.
func (i *Identity) Invalidate() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.authenticated = false
	i.cred.AccessToken = ""
}

// Logout clears every field.
func (i *Identity) Logout() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cred = Credential{}
	i.authenticated = false
}
