package server

import (
	"net"
	"os"

	"github.com/sirupsen/logrus"
)

// notifyReady signals readiness to a hosting service manager via the
// sd_notify protocol. A missing NOTIFY_SOCKET means the daemon was started
// outside systemd, which is not an error.
func notifyReady(logger *logrus.Entry) {
	socket := os.Getenv("NOTIFY_SOCKET")
	if socket == "" {
		return
	}

	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Name: socket, Net: "unixgram"})
	if err != nil {
		logger.WithError(err).Info("Failed to notify service manager")
		return
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("READY=1")); err != nil {
		logger.WithError(err).Info("Failed to notify service manager")
		return
	}
	logger.Info("Notified service manager of ready state")
}
