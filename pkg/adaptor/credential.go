package adaptor

// Credential is an opaque authentication handle carried to adaptors.
//
// Credential storage formats are out of scope; the engine only transports
// these descriptors. Implementations are immutable.
type Credential interface {
	// Kind names the credential type.
	Kind() string
}

// DefaultCredential selects the backend's ambient authentication (e.g., the
// current user for local execution, anonymous for FTP, the SDK default chain
// for object stores).
type DefaultCredential struct{}

// Kind implements Credential.
func (DefaultCredential) Kind() string { return "default" }

// PasswordCredential authenticates with a username and password.
type PasswordCredential struct {
	Username string
	Password string
}

// Kind implements Credential.
func (PasswordCredential) Kind() string { return "password" }

// CertificateCredential authenticates with a certificate or key file.
type CertificateCredential struct {
	Username string
	KeyFile  string
}

// Kind implements Credential.
func (CertificateCredential) Kind() string { return "certificate" }
