package orgtodo

import "embed"

// EmailFS holds the HTML and plaintext email templates, one directory per template.
//
//go:embed templates/emails
var EmailFS embed.FS

// MigrationsFS holds the SQL migrations applied by `todoctl migrate`.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// PermifySchema is the schema written to Permify when AUTHZ_MODE=permify.
//
//go:embed permify.perm
var PermifySchema string
