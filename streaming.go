package gemini

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// GenerationStream delivers incremental generation responses.
//
// Read frames from Ch until it closes, then check Err for a single terminal
// error. Each frame is a complete GenerationResponse carrying a partial
// candidate.
type GenerationStream struct {
	Ch  <-chan *GenerationResponse
	Err <-chan error
}

// Drain consumes the stream to completion, concatenating first-candidate text
// from every frame. Returns the accumulated text and the terminal error, if
// any.
func (s *GenerationStream) Drain() (string, error) {
	var sb strings.Builder
	for frame := range s.Ch {
		sb.WriteString(frame.Text())
	}
	if err, ok := <-s.Err; ok && err != nil {
		return sb.String(), err
	}
	return sb.String(), nil
}

// Stream executes the request against the streaming endpoint and returns a
// channel-based stream of response frames.
func (b *ContentBuilder) Stream(ctx context.Context) (*GenerationStream, error) {
	req, err := b.Build()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, newDecodeError(err)
	}

	url := b.c.modelURL(b.model, "streamGenerateContent") + "&alt=sse"
	httpReq, err := b.c.newRequest(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.c.config.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, newNetworkError(err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, normalizeError(resp.StatusCode, respBody)
	}

	frameCh := make(chan *GenerationResponse, 100)
	errCh := make(chan error, 1)

	go processSSEStream(ctx, resp.Body, frameCh, errCh)

	return &GenerationStream{Ch: frameCh, Err: errCh}, nil
}

// processSSEStream reads `data:` framed server-sent events and emits one
// decoded response per frame. The literal [DONE] sentinel and non-data lines
// are ignored.
func processSSEStream(ctx context.Context, body io.ReadCloser, frameCh chan<- *GenerationResponse, errCh chan<- error) {
	defer body.Close()
	defer close(frameCh)
	defer close(errCh)

	reader := bufio.NewReader(body)

	for {
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
			return
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return
			}
			errCh <- newNetworkError(err)
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var frame GenerationResponse
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			errCh <- newDecodeError(err)
			return
		}

		select {
		case frameCh <- &frame:
		case <-ctx.Done():
			errCh <- ctx.Err()
			return
		}
	}
}
