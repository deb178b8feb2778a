package parallel

import (
	"sync/atomic"
	"testing"
)

func TestFor(t *testing.T) {
	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, DefaultConfig())

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestFor_EachIndexOnce(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}
	hits := make([]int32, 10)

	For(len(hits), func(i int) {
		atomic.AddInt32(&hits[i], 1)
	}, cfg)

	for i, h := range hits {
		if h != 1 {
			t.Errorf("Index %d visited %d times", i, h)
		}
	}
}

func TestFor_Sequential(t *testing.T) {
	order := make([]int, 0, 100)
	For(100, func(i int) {
		order = append(order, i)
	}, Config{Enabled: false})

	for i, v := range order {
		if v != i {
			t.Fatalf("Expected sequential order, got %v at %d", v, i)
		}
	}
}

func TestCoarseConfig(t *testing.T) {
	cfg := CoarseConfig()
	if cfg.MinChunkSize != 1 {
		t.Errorf("Expected MinChunkSize 1, got %d", cfg.MinChunkSize)
	}

	var counter int64
	For(0, func(_ int) { atomic.AddInt64(&counter, 1) }, cfg)
	if counter != 0 {
		t.Errorf("Expected no calls for n=0, got %d", counter)
	}
}

func BenchmarkFor(b *testing.B) {
	n := 10000
	work := func(i int) {
		x := float64(i)
		for k := 0; k < 100; k++ {
			x = x*1.0000001 + 1
		}
		_ = x
	}

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			For(n, work, DefaultConfig())
		}
	})
	b.Run("sequential", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			For(n, work, Config{Enabled: false})
		}
	})
}
