package webclient

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ChromeDPClient renders pages in a headless browser before returning their
// HTML. Used for landing pages that only materialize their content through
// JavaScript, where a plain GET would search an empty shell.
type ChromeDPClient struct {
	idleAfter time.Duration
	allocOpts []chromedp.ExecAllocatorOption
}

func NewChromeDPClient(idleAfter time.Duration, opts ...chromedp.ExecAllocatorOption) (*ChromeDPClient, error) {
	if idleAfter <= 0 {
		idleAfter = 2 * time.Second
	}
	return &ChromeDPClient{idleAfter: idleAfter, allocOpts: opts}, nil
}

// waitNetworkIdle signals once no network requests have been active for
// idleAfter.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() {
					close(idleChan)
				})
			}
		})
	}

	chromedp.ListenTarget(ctx,
		func(ev any) {
			switch ev.(type) {
			case *network.EventRequestWillBeSent:
				atomic.AddInt32(&activeReqs, 1)
			case *network.EventLoadingFinished, *network.EventLoadingFailed:
				if atomic.AddInt32(&activeReqs, -1) == 0 {
					startTimer()
				}
			}
		})

	startTimer()
	return idleChan
}

// Do navigates to req.URL, waits for the network to go idle, and returns the
// rendered outer HTML. The request method is ignored: a browser navigation is
// always a GET.
func (cdc *ChromeDPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:], cdc.allocOpts...)...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	waitIdleChan := waitNetworkIdle(browserCtx, cdc.idleAfter)

	if err := chromedp.Run(browserCtx, chromedp.Navigate(req.URL)); err != nil {
		return nil, err
	}

	select {
	case <-waitIdleChan:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var html, finalURL string
	if err := chromedp.Run(browserCtx,
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html),
	); err != nil {
		return nil, err
	}

	return &Response{
		Request:    req,
		Body:       []byte(html),
		StatusCode: http.StatusOK,
		FinalURL:   finalURL,
		FetchedAt:  time.Now(),
	}, nil
}

func (cdc *ChromeDPClient) Close() error {
	return nil
}
