package paramstore_test

import (
	"sync"
	"testing"
	"time"

	"github.com/tuhh-sat/pluto-core/paramstore"
)

func TestGetSetValue(t *testing.T) {
	now := time.Now()
	p := paramstore.NewParameter[int](1, 42, now, false)
	v, ct, res := p.GetValue()
	if res != paramstore.Success || v != 42 || !ct.Equal(now) {
		t.Fatalf("unexpected initial read: v=%d res=%v", v, res)
	}

	later := now.Add(time.Second)
	if res := p.SetValue(7, later); res != paramstore.Success {
		t.Fatalf("SetValue: %v", res)
	}
	v, ct, res = p.GetValue()
	if res != paramstore.Success || v != 7 || !ct.Equal(later) {
		t.Fatalf("unexpected updated read: v=%d res=%v", v, res)
	}
}

func TestNotInitialized(t *testing.T) {
	p := paramstore.NewParameter[int](paramstore.InvalidID, 0, time.Now(), false)
	if !p.HasInvalidIDAssigned() {
		t.Fatalf("expected HasInvalidIDAssigned")
	}
	if _, _, res := p.GetValue(); res != paramstore.NotInitialized {
		t.Fatalf("expected NotInitialized, got %v", res)
	}
	if res := p.SetValue(1, time.Now()); res != paramstore.NotInitialized {
		t.Fatalf("expected NotInitialized, got %v", res)
	}
}

func TestMultipleWritersRejectsConcurrentSet(t *testing.T) {
	p := paramstore.NewParameter[int](2, 0, time.Now(), true)

	var wg sync.WaitGroup
	results := make([]paramstore.OperationResult, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.SetValue(i, time.Now())
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, r := range results {
		if r == paramstore.Success {
			successes++
		} else if r != paramstore.ConcurrentWrite {
			t.Fatalf("unexpected result %v", r)
		}
	}
	if successes == 0 {
		t.Fatalf("expected at least one successful write")
	}
}

func TestListAddFindSorted(t *testing.T) {
	list := paramstore.NewList()
	ids := []paramstore.IDType{5, 1, 3, 2, 4}
	for _, id := range ids {
		p := paramstore.NewParameter[int](id, int(id), time.Now(), false)
		if res := list.Add(p); res != paramstore.Success {
			t.Fatalf("Add(%d): %v", id, res)
		}
	}
	if res := list.Add(paramstore.NewParameter[int](3, 0, time.Now(), false)); res != paramstore.DuplicatedID {
		t.Fatalf("expected DuplicatedID, got %v", res)
	}

	for _, id := range ids {
		found, res := list.Find(id)
		if res != paramstore.Success || found.ID() != id {
			t.Fatalf("Find(%d): %v", id, res)
		}
	}
	if _, res := list.Find(99); res != paramstore.NoSuchID {
		t.Fatalf("expected NoSuchID, got %v", res)
	}
}
