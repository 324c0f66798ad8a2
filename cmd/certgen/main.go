// Package main generates the CA, server and operator certificates for the
// sync server's mutual TLS, writing them under a certs directory.
package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/crmsync/internal/certgen"
	"github.com/atinyakov/crmsync/internal/logger"
	"go.uber.org/zap"
)

const (
	caValidity   = 10 * 365 * 24 * time.Hour
	leafValidity = 365 * 24 * time.Hour
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma-separated server host names and IPs")
	operators := flag.String("operators", "ops", "comma-separated operator names (client certificate CNs)")
	caCert := flag.String("ca-cert", "", "existing CA certificate; a new CA is created when empty")
	caKey := flag.String("ca-key", "", "existing CA private key")
	flag.Parse()

	log := logger.New()
	if err := log.Init("info"); err != nil {
		os.Exit(1)
	}
	zapLogger := log.Log
	defer func() { _ = zapLogger.Sync() }()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		zapLogger.Fatal("create output dir", zap.Error(err))
	}

	ca, err := authority(*dir, *caCert, *caKey)
	if err != nil {
		zapLogger.Fatal("prepare CA", zap.Error(err))
	}

	server, err := ca.IssueServer(split(*hosts), leafValidity)
	if err != nil {
		zapLogger.Fatal("issue server certificate", zap.Error(err))
	}
	if err := server.Write(filepath.Join(*dir, "server.crt"), filepath.Join(*dir, "server.key")); err != nil {
		zapLogger.Fatal("write server certificate", zap.Error(err))
	}

	for _, name := range split(*operators) {
		pair, err := ca.IssueOperator(name, leafValidity)
		if err != nil {
			zapLogger.Fatal("issue operator certificate", zap.String("operator", name), zap.Error(err))
		}
		if err := pair.Write(filepath.Join(*dir, name+".crt"), filepath.Join(*dir, name+".key")); err != nil {
			zapLogger.Fatal("write operator certificate", zap.String("operator", name), zap.Error(err))
		}
	}

	zapLogger.Info("certificates generated", zap.String("dir", *dir))
}

// authority loads the given CA or creates one and stores it as ca.crt/ca.key.
func authority(dir, certPath, keyPath string) (*certgen.Authority, error) {
	if certPath != "" {
		return certgen.LoadAuthority(certPath, keyPath)
	}
	ca, err := certgen.NewAuthority("CRM Sync CA", caValidity)
	if err != nil {
		return nil, err
	}
	pair, err := ca.PEM()
	if err != nil {
		return nil, err
	}
	if err := pair.Write(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key")); err != nil {
		return nil, err
	}
	return ca, nil
}

func split(list string) []string {
	var out []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
