package store

import (
	"sync"
	"testing"

	"github.com/mfenderov/newsbrief/pkg/models"
)

func TestIndex_GetSwap(t *testing.T) {
	idx := NewIndex()

	if got := idx.Get("technology"); got != nil {
		t.Errorf("Get() on empty index = %v, want nil", got)
	}

	first := []models.Article{testArticle("technology", "https://a/1")}
	idx.Swap("technology", first)

	if got := idx.Get("technology"); len(got) != 1 || got[0].ID != first[0].ID {
		t.Errorf("Get() after Swap = %v, want the swapped snapshot", got)
	}

	second := []models.Article{
		testArticle("technology", "https://a/2"),
		testArticle("technology", "https://a/3"),
	}
	idx.Swap("technology", second)

	if got := idx.Get("technology"); len(got) != 2 {
		t.Errorf("len(Get()) after second Swap = %d, want 2", len(got))
	}
}

func TestIndex_SwapIsAtomicForReaders(t *testing.T) {
	idx := NewIndex()
	setA := []models.Article{
		testArticle("technology", "https://a/1"),
		testArticle("technology", "https://a/2"),
	}
	setB := []models.Article{
		testArticle("technology", "https://b/1"),
		testArticle("technology", "https://b/2"),
		testArticle("technology", "https://b/3"),
	}
	idx.Swap("technology", setA)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			idx.Swap("technology", setA)
			idx.Swap("technology", setB)
		}
	}()

	// A reader must only ever observe one of the two complete snapshots.
	for i := 0; i < 1000; i++ {
		got := idx.Get("technology")
		if len(got) != len(setA) && len(got) != len(setB) {
			t.Fatalf("reader observed a partial snapshot of length %d", len(got))
		}
	}
	close(done)
	wg.Wait()
}

func TestIndex_CategoriesAndLen(t *testing.T) {
	idx := NewIndex()
	idx.Swap("technology", []models.Article{testArticle("technology", "https://a/1")})
	idx.Swap("business", []models.Article{
		testArticle("business", "https://b/1"),
		testArticle("business", "https://b/2"),
	})

	categories := idx.Categories()
	if len(categories) != 2 || categories[0] != "business" || categories[1] != "technology" {
		t.Errorf("Categories() = %v, want [business technology]", categories)
	}
	if idx.Len() != 3 {
		t.Errorf("Len() = %d, want 3", idx.Len())
	}
}
