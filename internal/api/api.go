// Package api implements the ChannelAvailabilityService gRPC API.
package api

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"os"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_logrus "github.com/grpc-ecosystem/go-grpc-middleware/logging/logrus"
	grpc_ctxtags "github.com/grpc-ecosystem/go-grpc-middleware/tags"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/brocaar/whitespace-server/internal/api/ws"
	"github.com/brocaar/whitespace-server/internal/config"
	"github.com/brocaar/whitespace-server/internal/logging"
)

// Setup configures and starts the API server.
func Setup(c config.Config) error {
	log.WithFields(log.Fields{
		"bind":     c.API.Bind,
		"ca_cert":  c.API.CACert,
		"tls_cert": c.API.TLSCert,
		"tls_key":  c.API.TLSKey,
	}).Info("api: starting api server")

	gs, err := NewServer(c)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", c.API.Bind)
	if err != nil {
		return errors.Wrap(err, "start api listener error")
	}

	go func() {
		if err := gs.Serve(ln); err != nil {
			log.WithError(err).Error("api: serve error")
		}
	}()

	return nil
}

// NewServer returns a new gRPC server with the ChannelAvailabilityService
// registered.
func NewServer(c config.Config) (*grpc.Server, error) {
	opts := serverOptions()
	if c.API.TLSCert != "" && c.API.TLSKey != "" {
		creds, err := transportCredentials(c.API.TLSCert, c.API.TLSKey, c.API.CACert)
		if err != nil {
			return nil, errors.Wrap(err, "get transport credentials error")
		}
		opts = append(opts, grpc.Creds(creds))
	}

	gs := grpc.NewServer(opts...)
	ws.RegisterChannelAvailabilityServiceServer(gs, NewChannelAvailabilityServiceAPI())
	grpc_prometheus.Register(gs)

	return gs, nil
}

func serverOptions() []grpc.ServerOption {
	logrusEntry := log.NewEntry(log.StandardLogger())
	logrusOpts := []grpc_logrus.Option{
		grpc_logrus.WithLevels(grpc_logrus.DefaultCodeToLevel),
	}

	return []grpc.ServerOption{
		grpc_middleware.WithUnaryServerChain(
			grpc_ctxtags.UnaryServerInterceptor(grpc_ctxtags.WithFieldExtractor(grpc_ctxtags.CodeGenRequestFieldExtractor)),
			grpc_logrus.UnaryServerInterceptor(logrusEntry, logrusOpts...),
			logging.UnaryServerCtxIDInterceptor,
			grpc_prometheus.UnaryServerInterceptor,
		),
		grpc_middleware.WithStreamServerChain(
			grpc_ctxtags.StreamServerInterceptor(grpc_ctxtags.WithFieldExtractor(grpc_ctxtags.CodeGenRequestFieldExtractor)),
			grpc_logrus.StreamServerInterceptor(logrusEntry, logrusOpts...),
			grpc_prometheus.StreamServerInterceptor,
		),
	}
}

// transportCredentials returns the server credentials. When a CA
// certificate is given, clients must present a certificate signed by it.
func transportCredentials(tlsCert, tlsKey, caCert string) (credentials.TransportCredentials, error) {
	cert, err := tls.LoadX509KeyPair(tlsCert, tlsKey)
	if err != nil {
		return nil, errors.Wrap(err, "load key-pair error")
	}

	if caCert == "" {
		return credentials.NewTLS(&tls.Config{
			Certificates: []tls.Certificate{cert},
		}), nil
	}

	rawCACert, err := os.ReadFile(caCert)
	if err != nil {
		return nil, errors.Wrap(err, "load ca certificate error")
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(rawCACert) {
		return nil, errors.New("append ca certificate error")
	}

	return credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientCAs:    caCertPool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
	}), nil
}
