package database

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Nikhil-Doal/tracker/internal/config"
)

// BuildURL returns a lib/pq connection string for either local development
// or Google Cloud SQL on Cloud Run.
//
// DATABASE_URL wins when set. Otherwise INSTANCE_CONNECTION_NAME selects the
// Unix socket Cloud Run mounts at /cloudsql/<instance>, and DB_USER and
// DB_NAME are required. An empty password means IAM authentication.
func BuildURL(cfg config.DatabaseConfig) (string, error) {
	if cfg.URL != "" {
		return cfg.URL, nil
	}

	if cfg.InstanceConnectionName == "" {
		return "", fmt.Errorf("neither DATABASE_URL nor INSTANCE_CONNECTION_NAME is set")
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", fmt.Errorf("DB_USER and DB_NAME must be set when using INSTANCE_CONNECTION_NAME")
	}

	socketPath := fmt.Sprintf("/cloudsql/%s", cfg.InstanceConnectionName)
	parts := []string{
		"host=" + quoteValue(socketPath),
		"user=" + quoteValue(cfg.User),
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+quoteValue(cfg.Password))
	}
	parts = append(parts, "dbname="+quoteValue(cfg.Name), "sslmode=disable")

	return strings.Join(parts, " "), nil
}

// ConnectionInfo describes the configured connection for startup logs with
// credentials removed.
func ConnectionInfo(cfg config.DatabaseConfig) map[string]string {
	info := make(map[string]string)

	switch {
	case cfg.URL != "":
		info["connection_type"] = "direct"
		info["database_url"] = RedactURL(cfg.URL)
	case cfg.InstanceConnectionName != "":
		info["connection_type"] = "cloud_sql"
		info["instance"] = cfg.InstanceConnectionName
		info["user"] = cfg.User
		info["database"] = cfg.Name
	default:
		info["connection_type"] = "none"
	}

	return info
}

// RedactURL masks the password of a postgres:// URL. Key/value DSNs have
// their password field masked.
func RedactURL(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "postgres://***"
		}
		return u.Redacted()
	}

	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=***"
		}
	}
	return strings.Join(fields, " ")
}

func quoteValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
