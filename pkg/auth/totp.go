package auth

import (
	"fmt"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

// GenerateTOTPSecret creates a new TOTP secret for the given account.
// The secret must be persisted alongside the user before it can be verified.
func GenerateTOTPSecret(issuer, account string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	return key.Secret(), nil
}

// VerifyTOTPCode checks a 6-digit code against the stored secret.
func VerifyTOTPCode(secret, code string) bool {
	return totp.Validate(code, secret)
}

// ProvisioningQR renders the otpauth provisioning URI for the secret as a
// PNG QR code, scannable by Microsoft/Google Authenticator.
func ProvisioningQR(issuer, account, secret string) ([]byte, error) {
	uri := fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s", issuer, account, secret, issuer)
	png, err := qrcode.Encode(uri, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}
