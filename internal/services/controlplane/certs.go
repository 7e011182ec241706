package controlplane

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gopcua/opcua"

	"github.com/okuma-coupler/bridge/internal/middleware/logging"
)

// certDirs are created under the working directory if missing, per
// spec.md §6.5.
var certDirs = []string{"own", "trusted", "rejected"}

const certBaseDir = "certificates"

// certOptions ensures the certificate directories and application
// certificate exist, then returns the gopcua options carrying the
// application's own identity. The secure channel itself runs under the
// None security policy (see Client.Connect); no peer-certificate
// validation occurs because none is negotiated (spec.md §4.2
// "Certificate validation").
func certOptions(logger *logging.Logger) []opcua.Option {
	if err := ensureCertDirs(); err != nil {
		logger.Warn("Failed to prepare certificate directories", "error", err)
		return nil
	}

	certFile := filepath.Join(certBaseDir, "own", "application.crt")
	keyFile := filepath.Join(certBaseDir, "own", "application.key")
	if _, err := os.Stat(certFile); os.IsNotExist(err) {
		if err := generateSelfSignedCertificate(certFile, keyFile); err != nil {
			logger.Warn("Failed to generate self-signed application certificate", "error", err)
			return nil
		}
	}

	return []opcua.Option{
		opcua.CertificateFile(certFile),
		opcua.PrivateKeyFile(keyFile),
	}
}

func ensureCertDirs() error {
	for _, d := range certDirs {
		if err := os.MkdirAll(filepath.Join(certBaseDir, d), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// generateSelfSignedCertificate mints a one-year application certificate
// into certFile/keyFile, grounded on the self-signed-certificate helper
// used by awcullen/opcua's reference server entrypoint.
func generateSelfSignedCertificate(certFile, keyFile string) error {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return err
	}

	host, _ := os.Hostname()
	applicationURI, _ := url.Parse(fmt.Sprintf("urn:%s:okuma-coupler-bridge", host))
	serialNumber, _ := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	subjectKeyHash := sha1.New()
	subjectKeyHash.Write(key.PublicKey.N.Bytes())
	subjectKeyID := subjectKeyHash.Sum(nil)

	template := x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               pkix.Name{CommonName: "okuma-coupler-bridge"},
		SubjectKeyId:          subjectKeyID,
		AuthorityKeyId:        subjectKeyID,
		NotBefore:             time.Now(),
		NotAfter:              time.Now().AddDate(1, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{host},
		URIs:                  []*url.URL{applicationURI},
	}

	raw, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return err
	}

	certOut, err := os.Create(certFile)
	if err != nil {
		return err
	}
	defer certOut.Close()
	if err := pem.Encode(certOut, &pem.Block{Type: "CERTIFICATE", Bytes: raw}); err != nil {
		return err
	}

	keyOut, err := os.Create(keyFile)
	if err != nil {
		return err
	}
	defer keyOut.Close()
	return pem.Encode(keyOut, &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}
