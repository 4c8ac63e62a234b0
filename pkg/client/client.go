// Package client connects to the daemon socket and performs one
// request/response exchange.
package client

import (
	"net"
	"time"

	"github.com/JhihJian/SUMM-Daemon/config"
	"github.com/JhihJian/SUMM-Daemon/errors"
	"github.com/JhihJian/SUMM-Daemon/pkg/protocol"
)

// RequestTimeout bounds one exchange end to end.
const RequestTimeout = 30 * time.Second

// SocketPath resolves the daemon socket location.
func SocketPath() (string, error) {
	baseDir, err := config.BaseDir()
	if err != nil {
		return "", err
	}
	return config.Default(baseDir).SocketPath, nil
}

// Send connects to the daemon, sends one request and returns the response.
// Connection failures surface as E007: the daemon is not reachable.
func Send(req *protocol.Request) (*protocol.Response, error) {
	socketPath, err := SocketPath()
	if err != nil {
		return nil, err
	}
	return SendTo(socketPath, req)
}

// SendTo performs the exchange against an explicit socket path.
func SendTo(socketPath string, req *protocol.Request) (*protocol.Response, error) {
	conn, err := net.DialTimeout("unix", socketPath, RequestTimeout)
	if err != nil {
		return nil, errors.DaemonUnreachable(err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(RequestTimeout)); err != nil {
		return nil, errors.DaemonUnreachable(err)
	}

	if err := protocol.WriteRequest(conn, req); err != nil {
		return nil, errors.DaemonUnreachable(err)
	}

	resp, err := protocol.ReadResponse(conn)
	if err != nil {
		return nil, errors.DaemonUnreachable(err)
	}
	return resp, nil
}
