package hostfilter

import (
	"fmt"
	"regexp"

	"github.com/spf13/viper"

	"github.com/querylab/diskstore/core/storage"
)

// Filter holds the operator-defined allowlist. The zero value (or a nil
// *Filter) allows every host.
type Filter struct {
	hosts    map[string]struct{}
	patterns []*regexp.Regexp
}

// New compiles an allowlist from exact host names and host regular
// expressions. Host names are matched verbatim (including any port the
// operator chose to include), patterns against the full host string.
func New(hosts []string, patterns []string) (*Filter, error) {
	f := &Filter{hosts: make(map[string]struct{}, len(hosts))}
	for _, h := range hosts {
		f.hosts[h] = struct{}{}
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: bad host pattern %q: %v", storage.ErrInvalidConfig, p, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// LoadFilter reads an allowlist from a named configuration subsection.
// Recognized keys: "hosts" (list of exact names) and "host_regexp" (list of
// patterns). A missing section yields an allow-everything filter.
func LoadFilter(cfg *viper.Viper, section string) (*Filter, error) {
	sub := cfg.Sub(section)
	if sub == nil {
		return &Filter{}, nil
	}
	return New(sub.GetStringSlice("hosts"), sub.GetStringSlice("host_regexp"))
}

// IsAllowed reports whether connections to host are permitted.
func (f *Filter) IsAllowed(host string) bool {
	if f == nil || (len(f.hosts) == 0 && len(f.patterns) == 0) {
		return true
	}
	if _, ok := f.hosts[host]; ok {
		return true
	}
	for _, re := range f.patterns {
		if re.MatchString(host) {
			return true
		}
	}
	return false
}

// Check returns a forbidden-host error naming the rejected host, or nil when
// the host is allowed.
func (f *Filter) Check(host string) error {
	if f.IsAllowed(host) {
		return nil
	}
	return fmt.Errorf("%w: %s", storage.ErrForbiddenHost, host)
}
