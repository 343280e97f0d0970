// Package redaction scrubs secrets from parsed log records and from plugin
// output streams.
package redaction

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

// Marker replaces a secret when hash mode is off.
const Marker = "[REDACTED]"

// Redactor replaces secrets in text. It is safe for concurrent use; Track may
// add literal values while other goroutines scrub.
type Redactor struct {
	mu sync.RWMutex
	// literal values registered through Track, longest first
	tracked []string

	patterns []*regexp.Regexp
	hashMode bool
	salt     string

	// nil when gitleaks is disabled or failed to load
	detector *detect.Detector
}

// Config holds the configuration for the Redactor.
type Config struct {
	// Extra patterns to redact (e.g. "INT-[A-Z0-9]{16}")
	Patterns []string
	// Replace secrets with a salted hash instead of Marker so repeated
	// values can still be correlated across records
	HashMode bool
	Salt     string
	// Use only the built-in and custom patterns
	DisableGitleaks bool
}

// New creates a Redactor.
func New(cfg Config) (*Redactor, error) {
	r := &Redactor{
		hashMode: cfg.HashMode,
		salt:     cfg.Salt,
		patterns: make([]*regexp.Regexp, 0, len(cfg.Patterns)+len(defaultPatterns)),
	}

	if !cfg.DisableGitleaks {
		detector, err := newGitleaksDetector()
		if err != nil {
			slog.Warn("gitleaks rules unavailable, using built-in patterns only", "error", err)
		} else {
			r.detector = detector
		}
	}

	for _, p := range defaultPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile default pattern %s: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile custom pattern %s: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}

	return r, nil
}

// newGitleaksDetector loads the gitleaks default rule set.
func newGitleaksDetector() (*detect.Detector, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(strings.NewReader(config.DefaultConfig)); err != nil {
		return nil, fmt.Errorf("failed to read gitleaks config: %w", err)
	}

	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gitleaks config: %w", err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("failed to translate gitleaks config: %w", err)
	}

	return detect.NewDetector(cfg), nil
}

// Track registers a literal secret, such as a resolved config secret, so that
// every later ScrubString replaces it.
func (r *Redactor) Track(value string) {
	if value == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.tracked {
		if v == value {
			return
		}
	}
	r.tracked = append(r.tracked, value)
	// A secret that contains another must be replaced first.
	sort.SliceStable(r.tracked, func(i, j int) bool { return len(r.tracked[i]) > len(r.tracked[j]) })
}

// ScrubString replaces tracked values, then secrets found by gitleaks and
// finally the regex patterns.
func (r *Redactor) ScrubString(input string) string {
	if input == "" {
		return ""
	}

	result := input
	r.mu.RLock()
	for _, v := range r.tracked {
		result = strings.ReplaceAll(result, v, r.replacement(v))
	}
	r.mu.RUnlock()

	if r.detector != nil {
		for _, finding := range r.detector.Detect(detect.Fragment{Raw: result}) {
			if finding.Secret == "" {
				continue
			}
			result = strings.ReplaceAll(result, finding.Secret, r.replacement(finding.Secret))
		}
	}

	for _, re := range r.patterns {
		result = re.ReplaceAllStringFunc(result, r.replacement)
	}
	return result
}

// ScrubFields returns a scrubbed copy of fields. The input is not modified.
func (r *Redactor) ScrubFields(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = r.ScrubString(f)
	}
	return out
}

func (r *Redactor) replacement(secret string) string {
	if r.hashMode {
		return r.hash(secret)
	}
	return Marker
}

// hash returns a truncated HMAC-SHA256 of the secret keyed by the salt.
// Format: [hmac:0123456789abcdef]
func (r *Redactor) hash(secret string) string {
	mac := hmac.New(sha256.New, []byte(r.salt))
	mac.Write([]byte(secret))
	return fmt.Sprintf("[hmac:%s]", hex.EncodeToString(mac.Sum(nil))[:16])
}

// defaultPatterns cover common high-confidence secrets.
var defaultPatterns = []string{
	// AWS Access Key ID
	`\b((?:AKIA|ABIA|ACCA|ASIA)[0-9A-Z]{16})\b`,
	// Private key header
	`-----BEGIN [A-Z ]+ PRIVATE KEY-----`,
	// GitHub token
	`gh[pousr]_[A-Za-z0-9_]{36,255}`,
	// Slack token
	`xox[baprs]-([0-9a-zA-Z]{10,48})?`,
	// Bearer credentials in HTTP access logs
	`(?i)\bbearer\s+[A-Za-z0-9\-._~+/]{20,}=*`,
}
