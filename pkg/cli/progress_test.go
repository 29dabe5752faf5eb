package cli

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestProgress(buf *bytes.Buffer) *SimpleProgress {
	p := NewProgressReporter(buf).(*SimpleProgress)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	p.now = func() time.Time {
		calls++
		return start.Add(time.Duration(calls-1) * time.Second)
	}
	return p
}

func TestSimpleProgress(t *testing.T) {
	var buf bytes.Buffer
	p := newTestProgress(&buf)

	p.Start(100)
	p.Update(50)
	p.Finish()

	out := buf.String()
	for _, want := range []string{"  0.0% 0/100 records", " 50.0% 50/100 records", "100.0% 100/100 records"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("Finish() did not end the line")
	}
}

func TestSimpleProgressClampsOverflow(t *testing.T) {
	var buf bytes.Buffer
	p := newTestProgress(&buf)
	p.Start(10)
	p.Update(25)
	if !strings.Contains(buf.String(), "10/10 records") {
		t.Errorf("output %q, want progress clamped to 10/10", buf.String())
	}
}

func TestSimpleProgressZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := newTestProgress(&buf)
	p.Start(0)
	p.Update(0)
	p.Finish()
	if buf.Len() != 0 {
		t.Errorf("output = %q, want empty", buf.String())
	}
}

func TestSimpleProgressError(t *testing.T) {
	var buf bytes.Buffer
	p := newTestProgress(&buf)
	p.Start(10)
	p.Update(3)
	p.Error(errors.New("disk full"))

	if want := "import failed after 3/10 records: disk full"; !strings.Contains(buf.String(), want) {
		t.Errorf("output %q does not contain %q", buf.String(), want)
	}
}

func TestSimpleProgressConcurrent(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)
	p.Start(1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for j := int64(0); j < 100; j++ {
				p.Update(base + j)
			}
		}(int64(i * 100))
	}
	wg.Wait()
	p.Finish()
}
