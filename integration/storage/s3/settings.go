package s3

import (
	"strings"

	"github.com/spf13/viper"
)

// HeaderEntry is one custom HTTP header attached to every request a client
// sends. Entries keep their insertion order and duplicate names are legal;
// some providers use repeated headers for tagging.
type HeaderEntry struct {
	Name  string
	Value string
}

// AuthSettings bundles per-backend credentials and request decoration. A
// zero value means "nothing configured". String fields use "" for absent;
// the *bool fields are tri-state: nil inherits the deployment default, a
// non-nil value forces the behavior on or off. Callers must not conflate the
// two — only the pointer fields carry inherit-default semantics.
//
// Settings are layered: a global section is loaded first and per-disk
// sections are applied on top via UpdateFrom.
type AuthSettings struct {
	AccessKeyID          string
	SecretAccessKey      string
	Region               string
	SSECustomerKeyBase64 string

	Headers []HeaderEntry

	UseEnvironmentCredentials *bool
	UseInsecureIMDSRequest    *bool
}

// LoadAuthSettings reads a named configuration subsection into AuthSettings.
// Recognized keys: access_key_id, secret_access_key, region,
// server_side_encryption_customer_key_base64, headers (ordered
// "Name: value" entries), use_environment_credentials,
// use_insecure_imds_request. Absent keys leave fields at their zero value
// (nil for the tri-state flags); unrecognized keys are ignored. A missing
// section yields the zero settings.
func LoadAuthSettings(cfg *viper.Viper, section string) AuthSettings {
	sub := cfg.Sub(section)
	if sub == nil {
		return AuthSettings{}
	}

	s := AuthSettings{
		AccessKeyID:          sub.GetString("access_key_id"),
		SecretAccessKey:      sub.GetString("secret_access_key"),
		Region:               sub.GetString("region"),
		SSECustomerKeyBase64: sub.GetString("server_side_encryption_customer_key_base64"),
	}

	for _, raw := range sub.GetStringSlice("headers") {
		name, value, _ := strings.Cut(raw, ":")
		s.Headers = append(s.Headers, HeaderEntry{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}

	if sub.IsSet("use_environment_credentials") {
		v := sub.GetBool("use_environment_credentials")
		s.UseEnvironmentCredentials = &v
	}
	if sub.IsSet("use_insecure_imds_request") {
		v := sub.GetBool("use_insecure_imds_request")
		s.UseInsecureIMDSRequest = &v
	}
	return s
}

// UpdateFrom layers other on top of s: every field other carries (non-empty
// string, non-nil flag) overwrites the receiver's field, and headers are
// replaced wholesale when other specifies any. It is the sole mutation path
// after construction and is idempotent.
func (s *AuthSettings) UpdateFrom(other AuthSettings) {
	if other.AccessKeyID != "" {
		s.AccessKeyID = other.AccessKeyID
	}
	if other.SecretAccessKey != "" {
		s.SecretAccessKey = other.SecretAccessKey
	}
	if other.Region != "" {
		s.Region = other.Region
	}
	if other.SSECustomerKeyBase64 != "" {
		s.SSECustomerKeyBase64 = other.SSECustomerKeyBase64
	}
	if len(other.Headers) > 0 {
		s.Headers = append([]HeaderEntry(nil), other.Headers...)
	}
	if other.UseEnvironmentCredentials != nil {
		v := *other.UseEnvironmentCredentials
		s.UseEnvironmentCredentials = &v
	}
	if other.UseInsecureIMDSRequest != nil {
		v := *other.UseInsecureIMDSRequest
		s.UseInsecureIMDSRequest = &v
	}
}

// Equal reports structural equality: all fields including header order and
// the set/unset state of the tri-state flags.
func (s AuthSettings) Equal(other AuthSettings) bool {
	if s.AccessKeyID != other.AccessKeyID ||
		s.SecretAccessKey != other.SecretAccessKey ||
		s.Region != other.Region ||
		s.SSECustomerKeyBase64 != other.SSECustomerKeyBase64 {
		return false
	}
	if len(s.Headers) != len(other.Headers) {
		return false
	}
	for i := range s.Headers {
		if s.Headers[i] != other.Headers[i] {
			return false
		}
	}
	return triStateEqual(s.UseEnvironmentCredentials, other.UseEnvironmentCredentials) &&
		triStateEqual(s.UseInsecureIMDSRequest, other.UseInsecureIMDSRequest)
}

func triStateEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
