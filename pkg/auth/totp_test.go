package auth

import (
	"bytes"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func TestGenerateAndVerifyTOTP(t *testing.T) {
	secret, err := GenerateTOTPSecret("BotsLatam", "ana@example.com")
	if err != nil {
		t.Fatalf("GenerateTOTPSecret failed: %v", err)
	}
	if secret == "" {
		t.Fatal("expected non-empty secret")
	}

	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("failed to generate code: %v", err)
	}

	if !VerifyTOTPCode(secret, code) {
		t.Error("expected current code to verify")
	}
	if VerifyTOTPCode(secret, "000000") {
		t.Error("expected bogus code to fail")
	}
}

func TestProvisioningQR(t *testing.T) {
	png, err := ProvisioningQR("BotsLatam", "ana@example.com", "JBSWY3DPEHPK3PXP")
	if err != nil {
		t.Fatalf("ProvisioningQR failed: %v", err)
	}

	// PNG signature
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("expected PNG output")
	}
}
