// Package security masks credentials before configuration or log fields
// leave the process.
package security

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/config"
)

// sensitiveFields contains field names whose values are always masked.
var sensitiveFields = map[string]bool{
	"password":    true,
	"secret":      true,
	"token":       true,
	"api_key":     true,
	"webhook_url": true,
}

// sensitivePatterns matches key=value credentials embedded in free text.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(password|token|secret|api[_-]?key)[=:]\s*["']?([^\s"'&]+)["']?`),
}

// MaskCredential keeps a short prefix and suffix of value and stars the rest.
func MaskCredential(value string) string {
	switch {
	case len(value) == 0:
		return ""
	case len(value) <= 4:
		return strings.Repeat("*", len(value))
	case len(value) <= 8:
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// RedactURL keeps only the scheme and host of raw and stars out the path and
// query values, so a webhook stays identifiable without exposing its token.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return MaskCredential(raw)
	}

	var b strings.Builder
	b.WriteString(u.Scheme + "://" + u.Host)
	if u.Path != "" && u.Path != "/" {
		b.WriteString("/***")
	}
	if u.RawQuery != "" {
		keys := make([]string, 0)
		for k := range u.Query() {
			keys = append(keys, k+"=***")
		}
		sort.Strings(keys)
		b.WriteString("?" + strings.Join(keys, "&"))
	}
	return b.String()
}

// MaskString masks credentials embedded in free text.
func MaskString(input string) string {
	result := input
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			for _, sep := range []string{"=", ":"} {
				if parts := strings.SplitN(match, sep, 2); len(parts) == 2 {
					return parts[0] + sep + MaskCredential(strings.Trim(parts[1], "\"' "))
				}
			}
			return MaskCredential(match)
		})
	}
	return result
}

// RedactFields returns a copy of fields with sensitive values masked.
func RedactFields(fields map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		s, isString := v.(string)
		switch {
		case sensitiveFields[strings.ToLower(k)] && isString:
			result[k] = MaskCredential(s)
		case sensitiveFields[strings.ToLower(k)]:
			result[k] = "***"
		case isString:
			result[k] = MaskString(s)
		default:
			result[k] = v
		}
	}
	return result
}

// RedactConfig returns a copy of cfg safe to print or log.
func RedactConfig(cfg config.Config) config.Config {
	cfg.Cache.Password = MaskCredential(cfg.Cache.Password)
	cfg.Notify.WebhookURL = RedactURL(cfg.Notify.WebhookURL)
	return cfg
}

// LogConfig writes the effective configuration at debug level with
// credentials masked.
func LogConfig(logger zerolog.Logger, cfg config.Config) {
	logger.Debug().Fields(RedactFields(map[string]interface{}{
		"cache_driver": cfg.Cache.Driver,
		"cache_addr":   cfg.Cache.Addr,
		"password":     cfg.Cache.Password,
		"store":        cfg.Store.Enabled,
		"store_path":   cfg.Store.Path,
		"webhook":      RedactURL(cfg.Notify.WebhookURL),
		"symbols":      cfg.Market.Symbols,
	})).Msg("Configuration loaded")
}
