// Package testutil holds test doubles shared across packages.
package testutil

import (
	"context"
	"sync"
)

// FakeEngine implements assist.Engine with canned results.
type FakeEngine struct {
	Text    string
	Labels  []string
	Objects []string
	Err     error

	mu        sync.Mutex
	calls     []string
	lastImage []byte
	lastMax   int
	closed    bool
}

func NewFakeEngine() *FakeEngine {
	return &FakeEngine{}
}

func (f *FakeEngine) Name() string { return "fake" }

func (f *FakeEngine) record(op string, image []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	f.lastImage = append([]byte(nil), image...)
}

func (f *FakeEngine) DetectText(_ context.Context, image []byte) (string, error) {
	f.record("text", image)
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}

func (f *FakeEngine) DetectLabels(_ context.Context, image []byte, max int) ([]string, error) {
	f.record("labels", image)
	f.mu.Lock()
	f.lastMax = max
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Labels, nil
}

func (f *FakeEngine) LocalizeObjects(_ context.Context, image []byte) ([]string, error) {
	f.record("objects", image)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Objects, nil
}

func (f *FakeEngine) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Calls returns the operations invoked so far, in order.
func (f *FakeEngine) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeEngine) LastImage() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastImage
}

func (f *FakeEngine) LastMax() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastMax
}

func (f *FakeEngine) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// PNG is a minimal PNG header, enough for content sniffing.
var PNG = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D}
