package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/jgoulah/griddash/internal/dataset"
)

// Capturer screenshots the dashboard in a headless browser
type Capturer struct {
	visible bool
	width   int
	height  int
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a capturer with the given viewport and deadline
func New(visible bool, width, height int, timeout time.Duration, logger *slog.Logger) *Capturer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Capturer{
		visible: visible,
		width:   width,
		height:  height,
		timeout: timeout,
		logger:  logger,
	}
}

// Capture serves handler on a loopback port, opens the dashboard for sel
// and returns a PNG of the page
func (c *Capturer) Capture(ctx context.Context, handler http.Handler, sel dataset.Selection) ([]byte, error) {
	base, stop, err := serve(handler)
	if err != nil {
		return nil, err
	}
	defer stop()

	target := pageURL(base, sel)
	c.logger.Info("capturing dashboard", "url", target, "width", c.width, "height", c.height)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !c.visible),
		chromedp.Flag("no-sandbox", true),            // Required for running as root on Linux
		chromedp.Flag("disable-gpu", true),           // Recommended for headless Linux
		chromedp.Flag("disable-dev-shm-usage", true), // Avoid /dev/shm issues on Linux
		chromedp.WindowSize(c.width, c.height),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, c.timeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(c.width), int64(c.height)),
		chromedp.Navigate(target),
		chromedp.WaitVisible(`#lineChart`, chromedp.ByQuery),
		chromedp.WaitVisible(`#barChart`, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, err = page.CaptureScreenshot().
				WithFormat(page.CaptureScreenshotFormatPng).
				Do(ctx)
			return err
		}),
	); err != nil {
		return nil, fmt.Errorf("capturing %s: %w", target, err)
	}

	return buf, nil
}

// pageURL returns the dashboard address for a selection
func pageURL(base string, sel dataset.Selection) string {
	q := url.Values{}
	q.Set("hour", sel.String())
	return base + "/?" + q.Encode()
}

// serve starts handler on an ephemeral loopback port. stop shuts it down.
func serve(handler http.Handler) (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("listening: %w", err)
	}

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Default().Error("snapshot server", "error", err)
		}
	}()

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return "http://" + ln.Addr().String(), stop, nil
}
