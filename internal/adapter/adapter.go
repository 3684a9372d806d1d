package adapter

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

var ErrInvalidCA = errors.New("failed to parse CA certificate")

// MakeTLSConfig returns the client [*tls.Config] for mutual TLS
// with brokers and schema registry.
//
// All args are the filepaths of PEM files.
func MakeTLSConfig(ca, cert, key string) (*tls.Config, error) {
	const op = "adapter.MakeTLSConfig"

	caCert, err := os.ReadFile(ca)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: failed to read CA certificate file: %w", op, err,
		)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCA)
	}

	clientCert, err := tls.LoadX509KeyPair(cert, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &tls.Config{
		RootCAs:      caCertPool,
		Certificates: []tls.Certificate{clientCert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
