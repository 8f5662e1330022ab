package coalesce_test

import (
	"context"
	"fmt"

	"github.com/vnykmshr/lineagekit/pkg/scheduling/coalesce"
)

// Example demonstrates that calls made while an invocation is in flight
// collapse into the latest one.
func Example() {
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	s := coalesce.New(func(ctx context.Context, app string) error {
		fmt.Println("rendering", app)
		started <- struct{}{}
		if app == "Aperture" {
			<-release
		}
		return nil
	})

	s.Schedule("Aperture")
	<-started

	s.Schedule("Etar")
	s.Schedule("Glimpse")
	close(release)

	_ = s.Wait(context.Background())
	<-started

	stats := s.Stats()
	fmt.Printf("scheduled=%d executed=%d coalesced=%d\n", stats.Scheduled, stats.Executed, stats.Coalesced)

	// Output:
	// rendering Aperture
	// rendering Glimpse
	// scheduled=3 executed=2 coalesced=1
}
