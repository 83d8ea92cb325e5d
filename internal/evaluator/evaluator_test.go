package evaluator_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/cadence/internal/evaluator"
	"github.com/JaimeStill/cadence/pkg/lifecycle"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCompletePassesRequest(t *testing.T) {
	var got evaluator.Request
	client := evaluator.ClientFunc(func(_ context.Context, req evaluator.Request) (string, error) {
		got = req
		return `{"ok":true}`, nil
	})

	sys := evaluator.Wrap(client, time.Second, discard())

	req := evaluator.Request{Stage: "clarity", Prompt: "hello", Temperature: 0.3}
	text, err := sys.Complete(context.Background(), req)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != `{"ok":true}` {
		t.Errorf("text = %q", text)
	}
	if got != req {
		t.Errorf("request = %+v, want %+v", got, req)
	}
}

func TestCompleteTimeout(t *testing.T) {
	client := evaluator.ClientFunc(func(ctx context.Context, _ evaluator.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	sys := evaluator.Wrap(client, 20*time.Millisecond, discard())

	_, err := sys.Complete(context.Background(), evaluator.Request{Stage: "content"})
	if !errors.Is(err, evaluator.ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
}

func TestCompleteError(t *testing.T) {
	boom := errors.New("connection refused")
	client := evaluator.ClientFunc(func(context.Context, evaluator.Request) (string, error) {
		return "", boom
	})

	sys := evaluator.Wrap(client, time.Second, discard())

	_, err := sys.Complete(context.Background(), evaluator.Request{})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
	if errors.Is(err, evaluator.ErrTimeout) {
		t.Error("transport error should not be reported as a timeout")
	}
}

func TestServesDuringShutdown(t *testing.T) {
	var calls atomic.Int32
	client := evaluator.ClientFunc(func(context.Context, evaluator.Request) (string, error) {
		calls.Add(1)
		return "done", nil
	})

	lc := lifecycle.New()
	sys := evaluator.Wrap(client, 0, discard())
	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	text, err := sys.Complete(context.Background(), evaluator.Request{Stage: "content"})
	if err != nil {
		t.Fatalf("Complete after shutdown: %v", err)
	}
	if text != "done" || calls.Load() != 1 {
		t.Errorf("text = %q calls = %d", text, calls.Load())
	}
}

func TestRequestOptions(t *testing.T) {
	jsonFormat := map[string]any{"type": "json_object"}

	tests := []struct {
		name string
		req  evaluator.Request
		want map[string]any
	}{
		{"none", evaluator.Request{}, nil},
		{"temperature", evaluator.Request{Temperature: 0.3}, map[string]any{"temperature": 0.3}},
		{"json", evaluator.Request{JSON: true}, map[string]any{"response_format": jsonFormat}},
		{"both", evaluator.Request{Temperature: 0.5, JSON: true}, map[string]any{
			"temperature":     0.5,
			"response_format": jsonFormat,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.req.Options(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Options() = %v, want %v", got, tt.want)
			}
		})
	}
}
