package server

import (
	"context"
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"golang.org/x/sync/errgroup"
)

// ListenAndServe runs the servers until ctx is done, then shuts them down.
// A server that stops on its own, such as one that cannot bind its address,
// shuts the others down and its error is returned.
func ListenAndServe(ctx context.Context, servers ...*http.Server) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()

		for _, s := range servers {
			if err := s.Shutdown(context.Background()); err != nil {
				logs.Warn(errors.Newf("shutting down the server failed").
					WithTag("addr", s.Addr).
					Wrap(err))
			}
		}
		return nil
	})

	for _, s := range servers {
		g.Go(func() error {
			logs.WithTag("addr", s.Addr).Info("starting server")

			switch err := s.ListenAndServe(); err {
			case nil, http.ErrServerClosed:
				logs.WithTag("addr", s.Addr).Info("stopping server")
				return nil

			default:
				return errors.Newf("server stopped").
					WithTag("addr", s.Addr).
					Wrap(err)
			}
		})
	}

	return g.Wait()
}

// MetricsPathFormatter returns empty string on HTTP 301, 400, 404, 405 or
// 413 statusCode.
func MetricsPathFormatter(statusCode int, path string) string {
	switch statusCode {
	case http.StatusMovedPermanently,
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusMethodNotAllowed,
		http.StatusRequestEntityTooLarge:
		return ""
	}
	return path
}

func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func HandleVersion(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(version))
	}
}
