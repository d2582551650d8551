package routeros

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	ros "github.com/go-routeros/routeros/v3"
)

// Target is everything needed to open an authenticated API session.
type Target struct {
	Address  string
	Username string
	Password string
	TLS      bool
}

// Session is one authenticated RouterOS API connection. Run sends a command
// sentence and returns the attribute maps of its !re replies.
type Session interface {
	Run(sentence ...string) ([]map[string]string, error)
	Close() error
}

// Dialer opens a Session. DialRouterOS is the production implementation;
// tests substitute fakes.
type Dialer func(ctx context.Context, target Target) (Session, error)

// DialRouterOS logs in to a RouterOS device over plain TCP or TLS.
// Certificates are not verified: RouterOS ships self-signed API certificates.
func DialRouterOS(ctx context.Context, target Target) (Session, error) {
	var (
		c   *ros.Client
		err error
	)
	if target.TLS {
		c, err = ros.DialTLSContext(ctx, target.Address, target.Username, target.Password,
			&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // device certificates are self-signed
	} else {
		c, err = ros.DialContext(ctx, target.Address, target.Username, target.Password)
	}
	if err != nil {
		var devErr *ros.DeviceError
		if errors.As(err, &devErr) {
			return nil, fmt.Errorf("%w: %w", ErrAuth, err)
		}
		return nil, err
	}

	return &rosSession{client: c}, nil
}

type rosSession struct {
	client *ros.Client
}

func (s *rosSession) Run(sentence ...string) ([]map[string]string, error) {
	reply, err := s.client.Run(sentence...)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(reply.Re))
	for _, re := range reply.Re {
		rows = append(rows, re.Map)
	}
	return rows, nil
}

func (s *rosSession) Close() error {
	s.client.Close()
	return nil
}
