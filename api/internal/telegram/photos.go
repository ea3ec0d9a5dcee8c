package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// scrub drops the request URL from transport errors. Bot API URLs carry
// the token.
func scrub(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}

// download fetches a file by its direct URL. The URL embeds the bot token,
// so returned errors never include it.
func (r *Router) download(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, errors.New("bad file url")
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, scrub(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}

	body := io.Reader(resp.Body)
	if r.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, r.MaxBytes+1)
	}
	img, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if r.MaxBytes > 0 && int64(len(img)) > r.MaxBytes {
		return nil, fmt.Errorf("image larger than %d bytes", r.MaxBytes)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	return img, nil
}
