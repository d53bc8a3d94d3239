package types

// OriginKind classifies who a call comes from.
type OriginKind int

const (
	// OriginNone is an unauthenticated caller.
	OriginNone OriginKind = iota
	// OriginSigned is a caller that authenticates itself through its payload signature.
	OriginSigned
	// OriginPrivileged is an administrator.
	OriginPrivileged
)

func (k OriginKind) String() string {
	switch k {
	case OriginSigned:
		return "signed"
	case OriginPrivileged:
		return "privileged"
	default:
		return "none"
	}
}

// Origin describes the caller of an operation.
type Origin struct {
	Kind    OriginKind
	Subject string // admin username for privileged origins
}

// IsPrivileged reports whether the origin may update the trusted root.
func (o Origin) IsPrivileged() bool {
	return o.Kind == OriginPrivileged
}

// PrivilegedOrigin returns the origin of an authenticated administrator.
func PrivilegedOrigin(subject string) Origin {
	return Origin{Kind: OriginPrivileged, Subject: subject}
}

// UnprivilegedOrigin returns the origin of an anonymous caller.
func UnprivilegedOrigin() Origin {
	return Origin{Kind: OriginNone}
}
