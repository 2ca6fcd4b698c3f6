package pkgwatch_test

import (
	"fmt"

	"github.com/bft-labs/pkgwatch"
	"github.com/bft-labs/pkgwatch/pkg/host"
)

// ExampleNewFunc shows an update reported by the host as a removal and a
// replacement of the same package.
func ExampleNewFunc() {
	b := host.NewBroadcaster(nil)

	obs, err := pkgwatch.NewFunc(b, func(s pkgwatch.LifecycleState) {
		fmt.Println(s.Package(), s.Kind())
	})
	if err != nil {
		fmt.Printf("failed to start: %v\n", err)
		return
	}

	replacing := map[string]bool{host.ExtraReplacing: true}
	b.Broadcast(host.Intent{Action: host.ActionPackageRemoved, Data: host.PackageURI("com.example.app"), Extras: replacing})
	b.Broadcast(host.Intent{Action: host.ActionPackageAdded, Data: host.PackageURI("com.example.app"), Extras: replacing})
	b.Broadcast(host.Intent{Action: host.ActionPackageReplaced, Data: host.PackageURI("com.example.app"), Extras: replacing})

	// Release drains queued states before returning.
	_ = obs.Release()

	// Output:
	// com.example.app Updating
	// com.example.app Updated
}

// Example_multipleHandlers fans each state out to several handlers in order.
func Example_multipleHandlers() {
	b := host.NewBroadcaster(nil)

	audit := pkgwatch.HandlerFunc(func(s pkgwatch.LifecycleState) {
		fmt.Println("audit:", s)
	})
	notify := pkgwatch.HandlerFunc(func(s pkgwatch.LifecycleState) {
		if s.Kind() == pkgwatch.FullyRemoved {
			fmt.Println("notify: uninstalled", s.Package())
		}
	})

	obs, err := pkgwatch.New(b, pkgwatch.Handlers{audit, notify})
	if err != nil {
		fmt.Printf("failed to start: %v\n", err)
		return
	}

	b.Broadcast(host.Intent{Action: host.ActionPackageFullyRemoved, Data: host.PackageURI("com.example.app")})
	_ = obs.Release()

	// Output:
	// audit: LifecycleState{package=com.example.app, state=FullyRemoved}
	// notify: uninstalled com.example.app
}

