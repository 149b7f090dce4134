// internal/workflow/creds.go
//
// Random wp-admin credentials for freshly created sites.  The customer
// never sees these; dashboard access goes through the autologin endpoint.

package workflow

import (
	"crypto/rand"
	"encoding/hex"
)

func randomToken(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b) // crypto/rand.Read does not fail on supported platforms
	return hex.EncodeToString(b)
}

func randomAdminUser() string     { return "sw-admin-" + randomToken(4) }
func randomAdminPassword() string { return randomToken(18) }
