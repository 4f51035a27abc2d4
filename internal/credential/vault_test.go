package credential

import "testing"

func TestVaultRoundTrip(t *testing.T) {
	v := NewVault()
	if err := v.Put("s1", "sk-secret-123"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := v.Get("s1")
	if !ok || got != "sk-secret-123" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	// Stored form is not the plaintext.
	if stored := v.bySession["s1"]; stored == "sk-secret-123" {
		t.Fatal("secret stored in the clear")
	}
}

func TestVaultValidation(t *testing.T) {
	v := NewVault()
	if err := v.Put("", "x"); err == nil {
		t.Fatal("empty session id accepted")
	}
	if err := v.Put("s1", "  "); err == nil {
		t.Fatal("blank secret accepted")
	}
	if _, ok := v.Get("missing"); ok {
		t.Fatal("missing session returned a secret")
	}
}

func TestVaultDeleteAndReset(t *testing.T) {
	v := NewVault()
	_ = v.Put("s1", "a")
	_ = v.Put("s2", "b")

	v.Delete("s1")
	if _, ok := v.Get("s1"); ok {
		t.Fatal("deleted credential still readable")
	}
	if _, ok := v.Get("s2"); !ok {
		t.Fatal("unrelated credential dropped")
	}

	v.Reset()
	if _, ok := v.Get("s2"); ok {
		t.Fatal("Reset left a credential behind")
	}
}
