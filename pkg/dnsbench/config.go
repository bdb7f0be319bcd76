package dnsbench

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Mode selects the execution strategy of a benchmark.
type Mode string

// Supported benchmark modes.
const (
	ModeCold          Mode = "cold"
	ModeWarm          Mode = "warm"
	ModeBurst         Mode = "burst"
	ModeComprehensive Mode = "comprehensive"
)

// ParseMode converts a textual mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCold, ModeWarm, ModeBurst, ModeComprehensive:
		return Mode(s), nil
	}
	return "", &ConfigError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q, supported modes are cold, warm, burst and comprehensive", s)}
}

// ConfigError is a fatal configuration problem. It is always raised during
// validation, before any query is issued.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// BenchmarkConfig describes one benchmark invocation. Resolvers may mix
// built-in registry ids and raw IP addresses, raw IPs become custom
// resolvers limited to plain UDP and TCP.
type BenchmarkConfig struct {
	Resolvers  []string    `validate:"min=1"`
	Transports []Transport `validate:"min=1"`
	Mode       Mode

	DomainCount int `validate:"gte=1,lte=100"`
	Runs        int `validate:"gte=1"`
	Parallel    int `validate:"gte=1"`

	// Rate caps the global queries per second across all resolvers.
	// Zero disables rate limiting.
	Rate int `validate:"gte=0"`

	RequestTimeout time.Duration `validate:"gt=0"`
	ConnectTimeout time.Duration `validate:"gt=0"`
	ReadTimeout    time.Duration `validate:"gt=0"`
	WriteTimeout   time.Duration `validate:"gt=0"`

	// MinSuccessRate is the viability threshold, in percent, a resolver
	// must reach to be eligible as winner.
	MinSuccessRate float64 `validate:"gte=0,lte=100"`

	DNSSEC     bool
	FlushCache bool

	// DohProtocol selects the HTTP protocol version for DoH requests,
	// one of HTTP1Proto, HTTP2Proto and HTTP3Proto.
	DohProtocol string

	// Insecure disables server TLS certificate validation for DoT and DoH.
	Insecure bool
}

var validate = validator.New()

// withDefaults fills unset fields with package defaults.
func (c BenchmarkConfig) withDefaults() BenchmarkConfig {
	if len(c.Transports) == 0 {
		c.Transports = []Transport{UDPTransport}
	}
	if c.Mode == "" {
		c.Mode = ModeCold
	}
	if c.DomainCount == 0 {
		c.DomainCount = DefaultDomainCount
	}
	if c.Runs == 0 {
		c.Runs = DefaultRuns
	}
	if c.Parallel == 0 {
		c.Parallel = DefaultParallel
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.MinSuccessRate == 0 {
		c.MinSuccessRate = DefaultMinSuccessRate
	}
	if c.DohProtocol == "" {
		c.DohProtocol = DefaultDohProtocol
	}
	return c
}

// resolve validates the configuration and materializes the resolver set.
// Any failure is a ConfigError, callers can rely on no query having been
// issued when resolve fails.
func (c BenchmarkConfig) resolve() ([]Resolver, error) {
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return nil, &ConfigError{Field: errs[0].Field(), Reason: fmt.Sprintf("failed %q constraint", errs[0].Tag())}
		}
		return nil, &ConfigError{Field: "config", Reason: err.Error()}
	}

	if _, err := ParseMode(string(c.Mode)); err != nil {
		return nil, err
	}
	switch c.DohProtocol {
	case HTTP1Proto, HTTP2Proto, HTTP3Proto:
	default:
		return nil, &ConfigError{Field: "dohProtocol", Reason: fmt.Sprintf("unknown HTTP protocol version %q", c.DohProtocol)}
	}

	resolvers := make([]Resolver, 0, len(c.Resolvers))
	seen := make(map[string]struct{}, len(c.Resolvers))
	for _, id := range c.Resolvers {
		r, err := GetResolver(id)
		if err != nil {
			r, err = CustomResolver(id)
			if err != nil {
				return nil, err
			}
		}
		if _, dup := seen[r.ID]; dup {
			return nil, &ConfigError{Field: "resolvers", Reason: fmt.Sprintf("resolver %q specified more than once", id)}
		}
		seen[r.ID] = struct{}{}
		resolvers = append(resolvers, r)
	}

	for _, t := range c.Transports {
		if _, err := ParseTransport(string(t)); err != nil {
			return nil, err
		}
	}

	return resolvers, nil
}
