package artifact

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/mfenderov/newsbrief/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeBackend struct {
	mu       sync.Mutex
	articles map[string]models.Article
	loads    int
	updates  int
	failLoad bool
}

func newFakeBackend(articles ...models.Article) *fakeBackend {
	b := &fakeBackend{articles: make(map[string]models.Article)}
	for _, a := range articles {
		b.articles[a.ID] = a
	}
	return b
}

func (b *fakeBackend) LoadArticle(_ context.Context, id string) (*models.Article, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loads++
	if b.failLoad {
		return nil, errors.New("backend unavailable")
	}
	a, ok := b.articles[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (b *fakeBackend) UpdateArtifactRef(_ context.Context, id, ref string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates++
	a, ok := b.articles[id]
	if !ok {
		return errors.New("article not found")
	}
	a.AudioRef = ref
	b.articles[id] = a
	return nil
}

func TestGetOrGenerate_ConcurrentCallersCoalesce(t *testing.T) {
	backend := newFakeBackend(models.Article{ID: "tech-abc", Summary: "hello"})
	cache := New(backend)

	var invocations atomic.Int32
	release := make(chan struct{})
	gen := func(ctx context.Context, a models.Article) (string, error) {
		invocations.Add(1)
		<-release
		return "audio/tech-abc.mp3", nil
	}

	const callers = 8
	results := make([]string, callers)
	errs := make([]error, callers)

	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], errs[i] = cache.GetOrGenerate(context.Background(), "tech-abc", KindAudio, gen)
		}(i)
	}

	started.Wait()
	time.Sleep(50 * time.Millisecond) // let callers reach the in-flight call
	close(release)
	done.Wait()

	if got := invocations.Load(); got != 1 {
		t.Errorf("generator invoked %d times, want 1", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Errorf("caller %d error = %v", i, errs[i])
		}
		if results[i] != "audio/tech-abc.mp3" {
			t.Errorf("caller %d ref = %q, want audio/tech-abc.mp3", i, results[i])
		}
	}
	if backend.updates != 1 {
		t.Errorf("UpdateArtifactRef called %d times, want 1", backend.updates)
	}
}

func TestGetOrGenerate_DurableArtifactShortCircuits(t *testing.T) {
	backend := newFakeBackend(models.Article{ID: "tech-abc", AudioRef: "audio/tech-abc.mp3"})
	cache := New(backend)

	ref, err := cache.GetOrGenerate(context.Background(), "tech-abc", KindAudio,
		func(ctx context.Context, a models.Article) (string, error) {
			t.Fatal("generator must not run when a durable artifact exists")
			return "", nil
		})
	if err != nil {
		t.Fatalf("GetOrGenerate() error = %v", err)
	}
	if ref != "audio/tech-abc.mp3" {
		t.Errorf("ref = %q, want existing durable ref", ref)
	}
}

func TestGetOrGenerate_FailureIsNotCached(t *testing.T) {
	backend := newFakeBackend(models.Article{ID: "tech-abc", Summary: "hello"})
	cache := New(backend)

	var invocations int
	gen := func(ctx context.Context, a models.Article) (string, error) {
		invocations++
		if invocations == 1 {
			return "", errors.New("synthesis unavailable")
		}
		return "audio/tech-abc.mp3", nil
	}

	if _, err := cache.GetOrGenerate(context.Background(), "tech-abc", KindAudio, gen); err == nil {
		t.Fatal("first call should surface the generation error")
	}

	ref, err := cache.GetOrGenerate(context.Background(), "tech-abc", KindAudio, gen)
	if err != nil {
		t.Fatalf("retry after failure error = %v", err)
	}
	if ref != "audio/tech-abc.mp3" {
		t.Errorf("retry ref = %q, want audio/tech-abc.mp3", ref)
	}
	if invocations != 2 {
		t.Errorf("generator invoked %d times, want 2 (failure must not stick)", invocations)
	}
}

func TestGetOrGenerate_UnknownArticle(t *testing.T) {
	cache := New(newFakeBackend())

	_, err := cache.GetOrGenerate(context.Background(), "missing", KindAudio,
		func(ctx context.Context, a models.Article) (string, error) {
			t.Fatal("generator must not run for an unknown article")
			return "", nil
		})
	if err == nil {
		t.Error("expected error for unknown article")
	}
}

func TestGetOrGenerate_BackendLoadError(t *testing.T) {
	backend := newFakeBackend(models.Article{ID: "tech-abc"})
	backend.failLoad = true
	cache := New(backend)

	_, err := cache.GetOrGenerate(context.Background(), "tech-abc", KindAudio,
		func(ctx context.Context, a models.Article) (string, error) { return "x", nil })
	if err == nil {
		t.Error("expected error when the durable check fails")
	}
}
