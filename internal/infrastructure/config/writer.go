package config

import (
	"fmt"
	"os"
)

// DefaultConfigYAML is the starter configuration content.
const DefaultConfigYAML = `# ruleshift configuration

# output_dir: converted_rules
# backup_root: backups

environments:
  stg:
    host: localhost
    port: 5432
    name: rules
    user: postgres
    # password: your-password (or set RULESHIFT_DB_PASSWORD env var)
    # sslmode: prefer
`

// WriteDefault writes a starter config file at path. It refuses to overwrite
// an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.WriteFile(path, []byte(DefaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
