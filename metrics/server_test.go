package metrics

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/textproto"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telebroad/rftp/filesystem"
	"github.com/telebroad/rftp/ftp"
	"github.com/telebroad/rftp/ftp/ftpusers"
)

func TestMetrics_WiredIntoServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	info := &ftp.ServerInfo{Modes: []ftp.TransferMode{ftp.ModeStream}, MaxConnections: 1, AllowAnonymous: true}
	srv := ftp.NewServer("127.0.0.1:0", info, ftpusers.NewLocalUsers(), filesystem.NewRoot(t.TempDir()))
	srv.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	srv.SetMetrics(m)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()

	c, err := textproto.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	_, _, err = c.ReadResponse(ftp.ReplyReady)
	require.NoError(t, err)

	// over budget
	rejected, err := textproto.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	_, _, err = rejected.ReadResponse(ftp.StatusServiceNotAvailable)
	require.NoError(t, err)
	_ = rejected.Close()

	require.NoError(t, c.PrintfLine("USER anonymous"))
	_, _, err = c.ReadResponse(ftp.ReplyLoggedIn)
	require.NoError(t, err)
	require.NoError(t, c.PrintfLine("QUIT"))
	_, _, err = c.ReadResponse(ftp.ReplyClosing)
	require.NoError(t, err)
	_ = c.Close()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.SessionsTotal.WithLabelValues("ok")) == 1
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionsTotal.WithLabelValues("admitted", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionsTotal.WithLabelValues("rejected", "max_connections")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthenticationsTotal.WithLabelValues("logged_in")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues(ftp.USER, "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveConnections))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.ErrorIs(t, <-done, ftp.ErrServerClosed)
}
