package parallel

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRun(t *testing.T) {
	ch := make(chan func(), 3)
	for i := 0; i < 3; i++ {
		ch <- func() {}
	}
	close(ch)

	wg, n := Run(ch, 2)
	wg.Wait()

	if *n != 3 {
		t.Errorf("unexpected count. want=%d have=%d", 3, *n)
	}
}

func TestRunProgress(t *testing.T) {
	sync1 := make(chan struct{})
	sync2 := make(chan struct{})

	ch := make(chan func(), 2)
	ch <- func() { <-sync1 }
	ch <- func() { <-sync2 }
	close(ch)

	wg, n := Run(ch, 2)

	checkValue := func(expected uint64) {
		var v uint64

		for i := 0; i < 100; i++ {
			if v = atomic.LoadUint64(n); v == expected {
				return
			}

			<-time.After(time.Millisecond)
		}

		t.Fatalf("unexpected progress value. want=%d have=%d", expected, v)
	}

	checkValue(0)
	close(sync1)
	checkValue(1)
	close(sync2)
	checkValue(2)
	wg.Wait()
}
