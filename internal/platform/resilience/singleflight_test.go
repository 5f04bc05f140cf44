package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_DeduplicatesConcurrentCalls(t *testing.T) {
	var g SingleFlight
	var executions atomic.Int32
	var shared atomic.Int32

	const callers = 25
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(callers)

	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err, wasShared := g.Do("introspect:token-ana", func() (any, error) {
				executions.Add(1)
				time.Sleep(20 * time.Millisecond)
				return "principal", nil
			})
			if err != nil {
				t.Errorf("singleflight call failed: %v", err)
				return
			}
			if v != "principal" {
				t.Errorf("unexpected value %v", v)
				return
			}
			if wasShared {
				shared.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("expected one execution, got %d", got)
	}
	if got := shared.Load(); got != callers-1 {
		t.Fatalf("expected %d shared results, got %d", callers-1, got)
	}
}

func TestSingleFlight_SequentialCallsRunIndependently(t *testing.T) {
	var g SingleFlight
	var executions atomic.Int32

	for i := 0; i < 3; i++ {
		_, _, wasShared := g.Do("introspect:token-bruno", func() (any, error) {
			executions.Add(1)
			return nil, nil
		})
		if wasShared {
			t.Fatalf("sequential call %d reported shared result", i)
		}
	}

	if got := executions.Load(); got != 3 {
		t.Fatalf("expected three executions, got %d", got)
	}
}
