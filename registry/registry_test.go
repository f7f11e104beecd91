package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dhcmrlchtdj/godeferred/promise"
	"github.com/dhcmrlchtdj/godeferred/registry"
)

func TestNativeProvider(t *testing.T) {
	ctx := context.Background()

	factory, err := registry.Lookup(registry.Native)
	require.NoError(t, err)

	d := factory(ctx)
	require.Equal(t, promise.Pending, d.State())
}

func TestDefaultIsNative(t *testing.T) {
	ctx := context.Background()

	factory, err := registry.Default()
	require.NoError(t, err)

	d := factory(ctx)
	require.Equal(t, promise.Pending, d.State())
}

func TestLookupUnknown(t *testing.T) {
	_, err := registry.Lookup("no-such-provider")
	require.ErrorIs(t, err, registry.ErrUnknownProvider)
}

func TestRegister(t *testing.T) {
	settled := func(ctx context.Context) *promise.Deferred[any] {
		return promise.Resolve[any](ctx, "ready")
	}

	require.NoError(t, registry.Register("settled", settled))

	err := registry.Register("settled", settled)
	require.ErrorIs(t, err, registry.ErrDuplicateProvider)

	err = registry.Register("nil", nil)
	require.ErrorIs(t, err, registry.ErrNilFactory)

	factory, err := registry.Lookup("settled")
	require.NoError(t, err)
	require.Equal(t, promise.Fulfilled, factory(context.Background()).State())
}

func TestInstallKeepsExistingUnlessForced(t *testing.T) {
	ctx := context.Background()

	pending := func(ctx context.Context) *promise.Deferred[any] {
		return promise.New[any](ctx, nil)
	}
	settled := func(ctx context.Context) *promise.Deferred[any] {
		return promise.Resolve[any](ctx, "ready")
	}

	registry.Install("install-target", pending, false)
	registry.Install("install-target", settled, false)

	factory, err := registry.Lookup("install-target")
	require.NoError(t, err)
	require.Equal(t, promise.Pending, factory(ctx).State())

	registry.Install("install-target", settled, true)
	factory, err = registry.Lookup("install-target")
	require.NoError(t, err)
	require.Equal(t, promise.Fulfilled, factory(ctx).State())
}

func TestSetDefault(t *testing.T) {
	ctx := context.Background()

	registry.Install("alt", func(ctx context.Context) *promise.Deferred[any] {
		return promise.Resolve[any](ctx, "alt")
	}, false)

	require.NoError(t, registry.SetDefault("alt"))
	t.Cleanup(func() {
		require.NoError(t, registry.SetDefault(registry.Native))
	})

	factory, err := registry.Default()
	require.NoError(t, err)
	d := factory(ctx)
	require.Equal(t, promise.Fulfilled, d.State())

	val, err := d.Value()
	require.NoError(t, err)
	require.Equal(t, "alt", val)

	require.ErrorIs(t, registry.SetDefault("no-such-provider"), registry.ErrUnknownProvider)
}
