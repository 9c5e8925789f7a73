package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

// Seeding known-unique secrets and scanning the serialized projection proves
// that no plaintext survives masking.
func TestMaskedProjectionsCarryNoPlaintext(t *testing.T) {
	const secret = "sekrit-7f3a1c"

	projections := []any{
		Destination{Name: "minio", AccessKeyID: secret, SecretKey: secret}.Masked(),
		Registry{Name: "ghcr", Username: "bot", Password: secret}.Masked(),
		GitProvider{Provider: "github", AccessToken: secret}.Masked(),
		Notification{Name: "ops", Channel: "slack", WebhookURL: secret}.Masked(),
		SSHKey{Name: "deploy", PublicKey: "ssh-ed25519 AAAA", PrivateKey: secret}.Masked(),
		SecurityRecord{Username: "admin", Password: secret}.Masked(),
		Certificate{Name: "wildcard", CertificateData: secret, PrivateKey: secret}.Masked(),
		Database{Name: "db", Engine: EnginePostgres, Password: secret}.Masked(),
	}
	for _, p := range projections {
		raw, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("marshal %T: %v", p, err)
		}
		if strings.Contains(string(raw), secret) {
			t.Errorf("%T leaks the secret: %s", p, raw)
		}
	}
}

func TestMaskedPresenceBits(t *testing.T) {
	with := Destination{AccessKeyID: "ak", SecretKey: "sk"}.Masked()
	if !with.AccessKeyPresent || !with.SecretKeyPresent {
		t.Error("presence bits should be set when secrets exist")
	}
	without := Destination{}.Masked()
	if without.AccessKeyPresent || without.SecretKeyPresent {
		t.Error("presence bits should be clear when secrets are empty")
	}
	if !without.AccessKeyMasked || !without.SecretKeyMasked {
		t.Error("masked bits are unconditional")
	}
}

// Full entities marshal secrets with json:"-"; the raw entity must also be
// safe to serialize.
func TestFullEntityJSONOmitsSecrets(t *testing.T) {
	const secret = "plain-9921"
	raw, err := json.Marshal(Database{Name: "db", Password: secret, ExternalURL: secret})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), secret) {
		t.Errorf("entity JSON leaks secret: %s", raw)
	}
}
