// internal/tenant/defaults.go
//
// Process-wide database defaults.
//
// Context
// -------
// Every plugin inherits the process database unless its metadata supplies
// an override.  The defaults arrive as an explicit value built from
// `config.Config` at boot, so nothing in this package reaches for globals.
//
// Notes
// -----
//   - ConnectionString here is plaintext.  Only plugin overrides are ever
//     decrypted.
//   - Oxford commas, two spaces after periods.
package tenant

// Defaults holds the process-level values a Resolver starts from.
type Defaults struct {
	DatabaseType     string
	ConnectionString string
	ProtectData      bool // plugin overrides are enc:v1: ciphertext
}

// Config is the resolved pair for one plugin instance.
type Config struct {
	DatabaseType     string
	ConnectionString string
}
