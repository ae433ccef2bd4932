package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/jtougas/lost-connection/internal/pkg/config"
	"github.com/jtougas/lost-connection/internal/pkg/errorsx"
	"github.com/jtougas/lost-connection/internal/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

// Target is an SSH endpoint and the credentials to log in with
type Target struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// TargetFromConfig returns the configured probe target
func TargetFromConfig(cfg config.ProbeConfig) Target {
	return Target{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
	}
}

// Addr returns host:port
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// Conn is an established connection
type Conn interface {
	ServerVersion() string
	Close() error
}

// Dialer opens connections to a target
type Dialer interface {
	Dial(ctx context.Context, target Target) (Conn, error)
}

// SSHDialer dials targets over SSH with password authentication.
// Host keys are not verified: the prober only checks that a login succeeds.
type SSHDialer struct {
	logger           *logger.Logger
	handshakeTimeout time.Duration
}

// NewSSHDialer creates an SSH dialer whose handshake is bounded by the
// probe timeout
func NewSSHDialer(cfg *config.Config, log *logger.Logger) *SSHDialer {
	return &SSHDialer{
		logger:           log,
		handshakeTimeout: cfg.Probe.Timeout,
	}
}

// Dial connects and authenticates. Failures are classified with errorsx so
// callers can tell refused or timed out dials from bad credentials.
func (d *SSHDialer) Dial(ctx context.Context, target Target) (Conn, error) {
	addr := target.Addr()

	var nd net.Dialer
	raw, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errorsx.Classify(fmt.Errorf("dial %s: %w", addr, err))
	}
	d.logger.Info(ctx, "connection made", zap.String("addr", addr))

	// The handshake does not take a context; closing the socket unblocks it
	stop := context.AfterFunc(ctx, func() {
		_ = raw.Close()
	})

	clientConfig := &ssh.ClientConfig{
		User:            target.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(target.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         d.handshakeTimeout,
	}
	if d.handshakeTimeout > 0 {
		_ = raw.SetDeadline(time.Now().Add(d.handshakeTimeout))
	}

	cc, chans, reqs, err := ssh.NewClientConn(raw, addr, clientConfig)
	if !stop() {
		// ctx ended during the handshake and the socket is already closed
		if cc != nil {
			_ = cc.Close()
		}
		d.logger.Info(ctx, "connection lost", zap.String("addr", addr), zap.Error(ctx.Err()))
		return nil, errorsx.Classify(fmt.Errorf("ssh handshake %s: %w", addr, ctx.Err()))
	}
	if err != nil {
		_ = raw.Close()
		d.logger.Info(ctx, "connection lost", zap.String("addr", addr), zap.Error(err))
		return nil, errorsx.Classify(fmt.Errorf("ssh handshake %s: %w", addr, err))
	}
	_ = raw.SetDeadline(time.Time{})

	return &sshConn{
		client: ssh.NewClient(cc, chans, reqs),
		ctx:    ctx,
		addr:   addr,
		logger: d.logger,
	}, nil
}

type sshConn struct {
	client *ssh.Client
	ctx    context.Context
	addr   string
	logger *logger.Logger
}

func (c *sshConn) ServerVersion() string {
	return string(c.client.ServerVersion())
}

// Close closes the connection, logging under the scope it was dialed in
func (c *sshConn) Close() error {
	err := c.client.Close()
	c.logger.Info(c.ctx, "connection lost", zap.String("addr", c.addr))
	return err
}
