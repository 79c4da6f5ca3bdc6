package game

import (
	"context"
	"fmt"
	"sync"

	"github.com/rushboard/solo-board/internal/board"
)

type identityRNG struct{ val int }

func (identityRNG) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

func (r identityRNG) IntN(n int) int { return r.val % n }

type reverseRNG struct{}

func (reverseRNG) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = n - 1 - i
	}
	return p
}

func (reverseRNG) IntN(n int) int { return n - 1 }

func cards(prefix string, n int) []board.Card {
	out := make([]board.Card, n)
	for i := range out {
		id := fmt.Sprintf("%s%d", prefix, i+1)
		out[i] = board.Card{ID: id, Image: "img/" + id + ".png"}
	}
	return out
}

func ids(cs []board.Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

// fakeBridge records every call made by the saver.
type fakeBridge struct {
	mu      sync.Mutex
	stored  *board.Snapshot
	loadErr error
	saveErr error
	saves   []board.Snapshot
	clears  int
	calls   []string
	// gate, when set, blocks each Save until a value is received.
	gate chan struct{}
}

func (f *fakeBridge) Load(context.Context) (board.Snapshot, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return board.Snapshot{}, false, f.loadErr
	}
	if f.stored == nil {
		return board.Snapshot{}, false, nil
	}
	return *f.stored, true, nil
}

func (f *fakeBridge) Save(_ context.Context, s board.Snapshot) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "save")
	f.saves = append(f.saves, s)
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stored = &s
	return nil
}

func (f *fakeBridge) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "clear")
	f.clears++
	f.stored = nil
	return nil
}

func (f *fakeBridge) snapshot() (saves []board.Snapshot, clears int, calls []string, stored *board.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]board.Snapshot(nil), f.saves...), f.clears, append([]string(nil), f.calls...), f.stored
}
