package bancho

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/osukon/banchod/internal/bancho/serverpackets"
)

// HTTPServer is the Echo application fronting the packet endpoint.
type HTTPServer struct {
	echo *echo.Echo
	srv  *Server
}

// NewHTTPServer constructs the Echo app with the bancho routes.
func NewHTTPServer(srv *Server) *HTTPServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	h := &HTTPServer{echo: e, srv: srv}
	h.registerRoutes()
	return h
}

// Echo exposes the underlying Echo instance for tests.
func (h *HTTPServer) Echo() *echo.Echo {
	return h.echo
}

func (h *HTTPServer) registerRoutes() {
	h.echo.GET("/", h.handleIndex)
	h.echo.POST("/", h.handleBancho)
	h.echo.GET("/preview/:id", h.handlePreview)
	if h.srv.cfg.MetricsEnabled {
		h.echo.GET(h.srv.cfg.MetricsPath, echo.WrapHandler(h.srv.metrics.Handler()))
	}
}

// Run starts Echo and blocks until ctx cancellation or startup failure.
func (h *HTTPServer) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		err := h.echo.Start(addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), h.srv.cfg.ShutdownTimeout)
		defer cancel()
		_ = h.echo.Shutdown(shutCtx)
		return nil
	}
}

// handlePreview redirects beatmapset preview requests to the official
// mirror; the client hits this host for audio snippets in the lobby.
func (h *HTTPServer) handlePreview(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently,
		fmt.Sprintf("https://b.ppy.sh/preview/%s.mp3", c.Param("id")))
}

func (h *HTTPServer) handleIndex(c echo.Context) error {
	return c.String(http.StatusOK, fmt.Sprintf("banchod (%d sessions online)", h.srv.sessions.Len()))
}

// handleBancho is the single packet endpoint: the first request of a
// client (no osu-token header) is a login, every subsequent request is a
// body of packet frames for an existing session.
func (h *HTTPServer) handleBancho(c echo.Context) error {
	if c.Request().Header.Get("User-Agent") != "osu!" {
		return c.NoContent(http.StatusForbidden)
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}

	token := c.Request().Header.Get("osu-token")
	if token == "" {
		res := h.srv.Login(c.Request().Context(), body, c.RealIP())
		c.Response().Header().Set("cho-token", res.Token)
		return c.Blob(http.StatusOK, echo.MIMEOctetStream, res.Body)
	}

	sess := h.srv.sessions.GetByToken(token)
	if sess == nil {
		// Stale token (server restart or eviction): the client state is
		// meaningless, tell it to reconnect.
		out := append(serverpackets.Notification("Server has restarted."),
			serverpackets.RestartServer(0)...)
		return c.Blob(http.StatusOK, echo.MIMEOctetStream, out)
	}

	out := h.srv.HandleRequest(c.Request().Context(), sess, body)
	if len(out) == 0 {
		out = serverpackets.Pong()
	}
	h.srv.metrics.BytesQueuedTotal.Add(float64(len(out)))
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, out)
}

// Uptime reports how long the server has been running.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startedAt)
}
