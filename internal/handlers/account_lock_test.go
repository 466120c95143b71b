package handlers

import (
	"fmt"
	"sync"
	"testing"

	"storefront/internal/models"
)

func TestAccountLocksSerializeMutations(t *testing.T) {
	locks := NewAccountLocks()

	addrs := []models.Address{
		{ID: "a1", IsDefault: true},
		{ID: "a2"},
		{ID: "a3"},
	}

	var wg sync.WaitGroup
	for i := 0; i < 300; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unlock := locks.Lock("user-1")
			defer unlock()
			setDefaultAddress(addrs, fmt.Sprintf("a%d", i%3+1))
		}(i)
	}
	wg.Wait()

	if got := defaultCount(addrs); got != 1 {
		t.Fatalf("expected exactly one default after concurrent set-default calls, got %d", got)
	}
}

func TestAccountLocksIndependentKeys(t *testing.T) {
	locks := NewAccountLocks()

	unlockA := locks.Lock("user-a")
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("user-b")
		unlockB()
		close(done)
	}()

	// A held lock on one account must not block another account.
	<-done
	unlockA()

	// Same key is reacquirable after release.
	unlock := locks.Lock("user-a")
	unlock()
}
