package jobpost

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jonathan/resume-pivot/internal/logging"
)

// settleDelay gives client-side rendering time to fill the page after load
const settleDelay = 2 * time.Second

// ChromeRenderer renders pages in a headless Chrome. Chrome or Chromium must be installed.
func ChromeRenderer(timeout time.Duration, logger *zap.Logger) Renderer {
	logger = logging.OrNop(logger).Named("browser")
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(ctx context.Context, url string) (string, error) {
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
			append(chromedp.DefaultExecAllocatorOptions[:],
				chromedp.Flag("headless", true),
				chromedp.Flag("disable-gpu", true),
				chromedp.Flag("no-sandbox", true),
				chromedp.Flag("disable-dev-shm-usage", true),
				chromedp.UserAgent(DefaultUserAgent),
			)...,
		)
		defer cancelAlloc()

		browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
		defer cancelBrowser()

		browserCtx, cancel := context.WithTimeout(browserCtx, timeout)
		defer cancel()

		start := time.Now()
		var html string
		err := chromedp.Run(browserCtx,
			chromedp.Navigate(url),
			chromedp.WaitReady("body"),
			chromedp.Sleep(settleDelay),
			chromedp.OuterHTML("html", &html),
		)
		if err != nil {
			return "", fmt.Errorf("browser rendering failed: %w", err)
		}

		logger.Debug("rendered page",
			zap.String("url", url),
			zap.Int("bytes", len(html)),
			zap.Duration("elapsed", time.Since(start)))
		return html, nil
	}
}
