package feed

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/pkgwatch/pkg/classify"
	"github.com/bft-labs/pkgwatch/pkg/host"
)

// countingHost wraps a Broadcaster and counts deregistrations.
type countingHost struct {
	*host.Broadcaster
	mu          sync.Mutex
	unregisters int
	registerErr error
}

func newCountingHost() *countingHost {
	return &countingHost{Broadcaster: host.NewBroadcaster(nil)}
}

func (c *countingHost) RegisterReceiver(f host.Filter, r host.Receiver) (host.Registration, error) {
	if c.registerErr != nil {
		return host.Registration{}, c.registerErr
	}
	return c.Broadcaster.RegisterReceiver(f, r)
}

func (c *countingHost) UnregisterReceiver(reg host.Registration) error {
	c.mu.Lock()
	c.unregisters++
	c.mu.Unlock()
	return c.Broadcaster.UnregisterReceiver(reg)
}

func packageIntent(action, id string, extras map[string]bool) host.Intent {
	return host.Intent{Action: action, Data: host.PackageURI(id), Extras: extras}
}

func TestFilter_CoversFivePackageActions(t *testing.T) {
	f := Filter()
	assert.ElementsMatch(t, []string{
		host.ActionPackageAdded,
		host.ActionPackageReplaced,
		host.ActionPackageRemoved,
		host.ActionPackageFullyRemoved,
		host.ActionPackageChanged,
	}, f.Actions)
	assert.Equal(t, []string{host.SchemePackage}, f.Schemes)
}

func TestToSignal(t *testing.T) {
	tests := []struct {
		name   string
		intent host.Intent
		want   classify.RawSignal
		ok     bool
	}{
		{
			name:   "added without extras",
			intent: packageIntent(host.ActionPackageAdded, "com.x", nil),
			want:   classify.RawSignal{Action: classify.ActionAdded, Package: "com.x"},
			ok:     true,
		},
		{
			name: "removed with both flags",
			intent: packageIntent(host.ActionPackageRemoved, "com.x", map[string]bool{
				host.ExtraReplacing:   true,
				host.ExtraDataRemoved: true,
			}),
			want: classify.RawSignal{
				Action:  classify.ActionRemoved,
				Package: "com.x",
				Flags:   classify.Flags{Replacing: true, DataRemoved: true},
			},
			ok: true,
		},
		{
			name:   "missing identifier becomes empty string",
			intent: host.Intent{Action: host.ActionPackageChanged},
			want:   classify.RawSignal{Action: classify.ActionChanged},
			ok:     true,
		},
		{
			name:   "foreign action",
			intent: host.Intent{Action: "pkgwatch.intent.action.BOOT_COMPLETED"},
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToSignal(tt.intent)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestAdapter_ForwardsMatchingIntentsSynchronously(t *testing.T) {
	h := newCountingHost()
	a := New(h)

	var got []classify.RawSignal
	handle, err := a.Start(func(sig classify.RawSignal) { got = append(got, sig) })
	require.NoError(t, err)
	assert.NotEqual(t, Handle{}, handle)
	assert.Equal(t, 1, a.Active())

	h.Broadcast(packageIntent(host.ActionPackageAdded, "com.a", nil))
	h.Broadcast(host.Intent{Action: host.ActionPackageAdded, Data: "file:/tmp/a"})
	h.Broadcast(packageIntent("pkgwatch.intent.action.OTHER", "com.b", nil))
	h.Broadcast(packageIntent(host.ActionPackageFullyRemoved, "com.c", nil))

	require.Len(t, got, 2)
	assert.Equal(t, classify.RawSignal{Action: classify.ActionAdded, Package: "com.a"}, got[0])
	assert.Equal(t, classify.RawSignal{Action: classify.ActionFullyRemoved, Package: "com.c"}, got[1])
}

func TestAdapter_StartRegistrationFailure(t *testing.T) {
	h := newCountingHost()
	h.registerErr = errors.New("permission denied")
	a := New(h)

	_, err := a.Start(func(classify.RawSignal) {})
	require.ErrorIs(t, err, ErrRegistration)
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, 0, a.Active())
}

func TestAdapter_StartClosedHost(t *testing.T) {
	b := host.NewBroadcaster(nil)
	b.Close()

	_, err := New(b).Start(func(classify.RawSignal) {})
	require.ErrorIs(t, err, ErrRegistration)
	require.ErrorIs(t, err, host.ErrClosed)
}

func TestAdapter_StartNilCallback(t *testing.T) {
	_, err := New(newCountingHost()).Start(nil)
	require.ErrorIs(t, err, ErrNilCallback)
}

func TestAdapter_StopIsIdempotent(t *testing.T) {
	h := newCountingHost()
	a := New(h)

	calls := 0
	handle, err := a.Start(func(classify.RawSignal) { calls++ })
	require.NoError(t, err)

	require.NoError(t, a.Stop(handle))
	require.NoError(t, a.Stop(handle))
	require.NoError(t, a.Stop(Handle{}))

	assert.Equal(t, 1, h.unregisters)
	assert.Equal(t, 0, a.Active())

	h.Broadcast(packageIntent(host.ActionPackageAdded, "com.x", nil))
	assert.Equal(t, 0, calls)
}

func TestAdapter_StopBeforeStart(t *testing.T) {
	h := newCountingHost()
	require.NoError(t, New(h).Stop(Handle{}))
	assert.Equal(t, 0, h.unregisters)
}

func TestAdapter_DropsSignalsRacingWithStop(t *testing.T) {
	h := newCountingHost()
	a := New(h)

	var handle Handle
	var got []string
	handle, err := a.Start(func(sig classify.RawSignal) {
		got = append(got, sig.Package)
		// Stop while the host is mid-broadcast to a second receiver snapshot.
		_ = a.Stop(handle)
	})
	require.NoError(t, err)

	h.Broadcast(packageIntent(host.ActionPackageAdded, "com.first", nil))
	h.Broadcast(packageIntent(host.ActionPackageAdded, "com.second", nil))

	assert.Equal(t, []string{"com.first"}, got)
}

func TestFormatExtras_Sorted(t *testing.T) {
	assert.Equal(t, "", formatExtras(nil))
	assert.Equal(t,
		host.ExtraDataRemoved+"=true "+host.ExtraReplacing+"=false",
		formatExtras(map[string]bool{host.ExtraReplacing: false, host.ExtraDataRemoved: true}),
	)
}
