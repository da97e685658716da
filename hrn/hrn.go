// Package hrn implements the Hierarchical Resource Name: the canonical
// identifier carried by every principal, action, and resource the
// authorization core reasons about.
//
// An HRN has the wire shape
//
//	hrn:<partition>:<service>:<region>:<account>:<resource-type>:<resource-path>
//
// where resource-type is itself "Namespace::TypeName" (namespace optional).
// HRNs are immutable values; two HRNs are equal iff their canonical forms
// are identical.
package hrn

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Kind classifies why an HRN failed to parse or construct.
type Kind int

const (
	// KindMalformed means the input did not have the expected number of
	// colon-delimited segments at all (e.g. missing the "hrn:" prefix).
	KindMalformed Kind = iota
	// KindEmptySegment means a required segment (everything but region) was empty.
	KindEmptySegment
	// KindInvalidChar means a segment contained whitespace or a disallowed character.
	KindInvalidChar
	// KindInvalidSegment means a segment violated a structural rule beyond
	// plain charset (e.g. a resource-type with more than one "::").
	KindInvalidSegment
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindEmptySegment:
		return "empty_segment"
	case KindInvalidChar:
		return "invalid_char"
	case KindInvalidSegment:
		return "invalid_segment"
	default:
		return "unknown"
	}
}

// Error reports why an HRN could not be built or parsed.
type Error struct {
	Kind    Kind
	Segment string // name of the offending segment, when known
	Input   string
	Reason  string
}

func (e *Error) Error() string {
	if e.Segment != "" {
		return "hrn: " + e.Kind.String() + ": " + e.Segment + ": " + e.Reason
	}
	return "hrn: " + e.Kind.String() + ": " + e.Reason
}

func newErr(kind Kind, segment, input, reason string) *Error {
	return &Error{Kind: kind, Segment: segment, Input: input, Reason: reason}
}

// HRN is an immutable, structurally-comparable resource identifier.
type HRN struct {
	partition    string
	service      string
	region       string
	account      string
	namespace    string
	typeName     string
	resourcePath string
}

// New constructs an HRN from its segments, validating and canonicalizing
// each one. resourceType is the combined "Namespace::TypeName" (or bare
// "TypeName" when there is no namespace).
func New(partition, service, region, account, resourceType, resourcePath string) (HRN, error) {
	partition = norm.NFC.String(partition)
	service = norm.NFC.String(service)
	region = norm.NFC.String(region)
	account = norm.NFC.String(account)
	resourceType = norm.NFC.String(resourceType)
	resourcePath = norm.NFC.String(resourcePath)

	if partition == "" {
		return HRN{}, newErr(KindEmptySegment, "partition", "", "partition must not be empty")
	}
	if service == "" {
		return HRN{}, newErr(KindEmptySegment, "service", "", "service must not be empty")
	}
	if account == "" {
		return HRN{}, newErr(KindEmptySegment, "account", "", "account must not be empty")
	}
	if resourceType == "" {
		return HRN{}, newErr(KindEmptySegment, "resource-type", "", "resource-type must not be empty")
	}
	if resourcePath == "" {
		return HRN{}, newErr(KindEmptySegment, "resource-path", "", "resource-path must not be empty")
	}

	partition = strings.ToLower(partition)
	service = strings.ToLower(service)

	if err := validateCharset("partition", partition, asciiIdentCharset); err != nil {
		return HRN{}, err
	}
	if err := validateCharset("service", service, asciiIdentCharset); err != nil {
		return HRN{}, err
	}
	if err := validateNoWhitespaceOrColon("region", region); err != nil {
		return HRN{}, err
	}
	if err := validateNoWhitespaceOrColon("account", account); err != nil {
		return HRN{}, err
	}
	if err := validateNoWhitespace("resource-path", resourcePath); err != nil {
		return HRN{}, err
	}

	namespace, typeName, err := splitResourceType(resourceType)
	if err != nil {
		return HRN{}, err
	}

	return HRN{
		partition:    partition,
		service:      service,
		region:       region,
		account:      account,
		namespace:    namespace,
		typeName:     typeName,
		resourcePath: resourcePath,
	}, nil
}

const asciiIdentCharset = "abcdefghijklmnopqrstuvwxyz0123456789-"

func validateCharset(segment, value, allowed string) error {
	for _, r := range value {
		if !strings.ContainsRune(allowed, r) {
			return newErr(KindInvalidChar, segment, value, "must be lowercase ASCII letters, digits or '-'")
		}
	}
	return nil
}

func validateNoWhitespace(segment, value string) error {
	if strings.ContainsAny(value, " \t\r\n") {
		return newErr(KindInvalidChar, segment, value, "must not contain whitespace")
	}
	for _, r := range value {
		if r < 0x20 {
			return newErr(KindInvalidChar, segment, value, "must not contain control characters")
		}
	}
	return nil
}

func validateNoWhitespaceOrColon(segment, value string) error {
	if err := validateNoWhitespace(segment, value); err != nil {
		return err
	}
	if strings.Contains(value, ":") {
		return newErr(KindInvalidChar, segment, value, "must not contain ':'")
	}
	return nil
}

// splitResourceType splits "Namespace::TypeName" (or bare "TypeName") into
// its two parts, rejecting anything with more than one embedded "::" or a
// lone, unpaired ':'.
func splitResourceType(resourceType string) (namespace, typeName string, err error) {
	if err := validateNoWhitespace("resource-type", resourceType); err != nil {
		return "", "", err
	}
	idx := strings.Index(resourceType, "::")
	if idx < 0 {
		if strings.Contains(resourceType, ":") {
			return "", "", newErr(KindInvalidSegment, "resource-type", resourceType, "lone ':' is not allowed; use '::' to separate namespace and type")
		}
		return "", resourceType, nil
	}
	namespace = resourceType[:idx]
	rest := resourceType[idx+2:]
	if strings.Contains(rest, ":") {
		return "", "", newErr(KindInvalidSegment, "resource-type", resourceType, "resource-type may contain at most one '::' separator")
	}
	if namespace == "" || rest == "" {
		return "", "", newErr(KindInvalidSegment, "resource-type", resourceType, "namespace and type name must both be non-empty around '::'")
	}
	return namespace, rest, nil
}

// splitRemainder splits the "<resource-type>:<resource-path>" remainder
// produced after the first five top-level colons have been consumed,
// treating "::" as an atomic namespace separator that belongs to
// resource-type rather than a field boundary.
func splitRemainder(remainder string) (resourceType, resourcePath string, ok bool) {
	i := 0
	for i < len(remainder) {
		if remainder[i] == ':' {
			if i+1 < len(remainder) && remainder[i+1] == ':' {
				i += 2
				continue
			}
			return remainder[:i], remainder[i+1:], true
		}
		i++
	}
	return "", "", false
}

// Parse parses the canonical HRN wire format. Parsing is total: it never
// panics, returning a typed *Error for any malformed input.
func Parse(s string) (HRN, error) {
	s = norm.NFC.String(s)

	parts := strings.SplitN(s, ":", 6)
	if len(parts) != 6 || parts[0] != "hrn" {
		return HRN{}, newErr(KindMalformed, "", s, "expected hrn:<partition>:<service>:<region>:<account>:<resource-type>:<resource-path>")
	}

	partition, service, region, account, remainder := parts[1], parts[2], parts[3], parts[4], parts[5]

	resourceType, resourcePath, ok := splitRemainder(remainder)
	if !ok {
		return HRN{}, newErr(KindMalformed, "", s, "missing resource-type/resource-path boundary")
	}

	return New(partition, service, region, account, resourceType, resourcePath)
}

// Format renders the HRN back to its canonical wire string. parse(format(h))
// == h for any h, and format(parse(s)) == s for any s that parse accepted and
// that is already canonical (NFC, lowercase partition and service).
func (h HRN) Format() string {
	var sb strings.Builder
	sb.WriteString("hrn:")
	sb.WriteString(h.partition)
	sb.WriteString(":")
	sb.WriteString(h.service)
	sb.WriteString(":")
	sb.WriteString(h.region)
	sb.WriteString(":")
	sb.WriteString(h.account)
	sb.WriteString(":")
	sb.WriteString(h.ResourceType())
	sb.WriteString(":")
	sb.WriteString(h.resourcePath)
	return sb.String()
}

// String implements fmt.Stringer as an alias for Format.
func (h HRN) String() string { return h.Format() }

// Partition returns the partition segment (e.g. "hodei").
func (h HRN) Partition() string { return h.partition }

// Service returns the owning service/bounded-context name (e.g. "iam").
func (h HRN) Service() string { return h.service }

// Region returns the region segment, which may be empty for global resources.
func (h HRN) Region() string { return h.region }

// Account returns the account/tenant segment.
func (h HRN) Account() string { return h.account }

// Namespace returns the namespace part of the resource-type segment, which
// may be empty when the resource-type was given as a bare type name.
func (h HRN) Namespace() string { return h.namespace }

// TypeName returns the type-name part of the resource-type segment.
func (h HRN) TypeName() string { return h.typeName }

// ResourceType returns the combined "Namespace::TypeName" resource-type
// segment, or just "TypeName" when there is no namespace.
func (h HRN) ResourceType() string {
	if h.namespace == "" {
		return h.typeName
	}
	return h.namespace + "::" + h.typeName
}

// ResourcePath returns the resource-path segment.
func (h HRN) ResourcePath() string { return h.resourcePath }

// IsZero reports whether h is the zero value (never a valid parsed/
// constructed HRN, since New and Parse always reject empty segments).
func (h HRN) IsZero() bool { return h == HRN{} }
