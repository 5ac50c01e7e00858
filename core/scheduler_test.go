package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"pkt.systems/atelier/schema"
)

func TestSchedulerSerializesCommands(t *testing.T) {
	svc := newTestService(t, schema.ServiceConfig{}, nil)
	ws := createTestWorkspace(t, svc, "main")

	const writers = 8
	const perWriter = 10
	var wg sync.WaitGroup
	wg.Add(writers)
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		go func(n int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				if _, err := svc.CreatePanel(context.Background(), schema.CreatePanelRequest{
					WorkspaceID: ws.ID,
					TypeKey:     "editor",
					Title:       schema.PanelTitle(fmt.Sprintf("p-%d-%d", n, j)),
				}); err != nil {
					errCh <- err
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent create: %v", err)
	}

	resp, err := svc.GetWorkspace(context.Background(), schema.GetWorkspaceRequest{WorkspaceID: ws.ID})
	if err != nil {
		t.Fatalf("get workspace: %v", err)
	}
	if len(resp.Workspace.PanelIDs) != writers*perWriter {
		t.Fatalf("expected %d tabs, got %d", writers*perWriter, len(resp.Workspace.PanelIDs))
	}
	seen := make(map[schema.PanelID]bool, len(resp.Workspace.PanelIDs))
	for _, id := range resp.Workspace.PanelIDs {
		if seen[id] {
			t.Fatalf("duplicate tab id %q", id)
		}
		seen[id] = true
	}
	if !seen[resp.Workspace.ActivePanel] {
		t.Fatalf("active panel %q is not a tab", resp.Workspace.ActivePanel)
	}
}

func TestSchedulerCloseIsIdempotent(t *testing.T) {
	sched := newScheduler(4)
	var mu sync.RWMutex
	go sched.run(&mu, func() {})

	if err := sched.submit(func() error { return nil }); err != nil {
		t.Fatalf("submit: %v", err)
	}
	sched.close()
	sched.close()
	if err := sched.submit(func() error { return nil }); !errors.Is(err, schema.ErrServiceClosed) {
		t.Fatalf("expected ErrServiceClosed, got %v", err)
	}
}

func TestSchedulerPropagatesCommandError(t *testing.T) {
	sched := newScheduler(4)
	var mu sync.RWMutex
	go sched.run(&mu, func() {})
	defer sched.close()

	boom := errors.New("boom")
	if err := sched.submit(func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected command error, got %v", err)
	}
}
