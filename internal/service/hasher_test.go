package service

import "testing"

func TestBcryptHasher_RoundTrip(t *testing.T) {
	hasher := NewBcryptHasher()

	secrets := []string{"S3guraClave!", "otro secreto largo con espacios", "7f9c2ba4e88f827d616045507605853e"}
	for _, secret := range secrets {
		digest, err := hasher.Hash(secret)
		if err != nil {
			t.Fatalf("hash %q: %v", secret, err)
		}
		if digest == secret {
			t.Fatalf("digest must differ from the secret")
		}
		if !hasher.Verify(secret, digest) {
			t.Fatalf("verify failed for %q", secret)
		}
		if hasher.Verify(secret+"x", digest) {
			t.Fatalf("verify accepted a wrong secret")
		}
	}
}

func TestBcryptHasher_SaltedDigests(t *testing.T) {
	hasher := NewBcryptHasher()

	a, err := hasher.Hash("S3guraClave!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := hasher.Hash("S3guraClave!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a == b {
		t.Fatalf("two digests of the same secret must not match")
	}
}
