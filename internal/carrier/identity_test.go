package carrier

import "testing"

func TestIdentityLifecycle(t *testing.T) {
	id := NewIdentity()

	if _, authenticated := id.Snapshot(); authenticated {
		t.Fatalf("new identity must not be authenticated")
	}

	id.BeginLogin("07901234567", "dev-1", "cont-1")
	if _, authenticated := id.Snapshot(); authenticated {
		t.Fatalf("pending login must not be authenticated")
	}
	pending, ok := id.Pending()
	if !ok || pending.ContinuationID != "cont-1" {
		t.Fatalf("expected pending credential, got %+v ok=%v", pending, ok)
	}

	cred := id.Authenticate("tok-1")
	if cred.AccessToken != "tok-1" || cred.Phone != "07901234567" {
		t.Fatalf("unexpected credential: %+v", cred)
	}
	if _, authenticated := id.Snapshot(); !authenticated {
		t.Fatalf("expected authenticated identity")
	}
}

func TestIdentityInvalidateKeepsPhone(t *testing.T) {
	id := NewIdentity()
	id.BeginLogin("07901234567", "dev-1", "cont-1")
	id.Authenticate("tok-1")

	id.Invalidate()

	cred, authenticated := id.Snapshot()
	if authenticated {
		t.Fatalf("expected identity to be deauthenticated")
	}
	if cred.AccessToken != "" {
		t.Fatalf("expected token cleared")
	}
	if id.Phone() != "07901234567" {
		t.Fatalf("expected phone retained for status reporting")
	}
}

func TestIdentityLogoutClearsEverything(t *testing.T) {
	id := NewIdentity()
	id.BeginLogin("07901234567", "dev-1", "cont-1")
	id.Authenticate("tok-1")

	id.Logout()

	if id.Phone() != "" {
		t.Fatalf("expected phone cleared")
	}
	if _, ok := id.Pending(); ok {
		t.Fatalf("expected no pending login after logout")
	}
}
