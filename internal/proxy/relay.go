package proxy

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Relay copies bytes between client and upstream in both directions until
// either leg reaches EOF or fails, then closes both sides. It returns the
// bytes moved client→upstream (upload) and upstream→client (download).
//
// A half-closed TCP connection does not keep the relay alive: the first leg
// to finish closes both streams, which unblocks the other leg. Canceling ctx
// closes both streams the same way.
func Relay(ctx context.Context, client, upstream io.ReadWriteCloser) (upload, download int64, err error) {
	var once sync.Once
	closeBoth := func() {
		once.Do(func() {
			_ = client.Close()
			_ = upstream.Close()
		})
	}
	defer closeBoth()

	stop := context.AfterFunc(ctx, closeBoth)
	defer stop()

	var g errgroup.Group

	g.Go(func() error {
		n, err := io.Copy(upstream, client)
		upload = n
		closeBoth()
		return ignoreClosed(err)
	})

	g.Go(func() error {
		n, err := io.Copy(client, upstream)
		download = n
		closeBoth()
		return ignoreClosed(err)
	})

	err = g.Wait()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return upload, download, err
}

// ignoreClosed drops the error a leg reports when the other leg already tore
// the connections down; only the first failure is meaningful.
func ignoreClosed(err error) error {
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}
