package table

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webbridge/internal/bridge/object"
	bridgeerr "github.com/GriffinCanCode/webbridge/internal/shared/errors"
)

func mustObject(t *testing.T, members ...object.Member) *object.Object {
	t.Helper()
	obj, err := object.New(members...)
	require.NoError(t, err)
	return obj
}

func TestRegisterAndFind(t *testing.T) {
	tbl := New()
	obj := mustObject(t)

	_, err := tbl.FindByID(obj.ID())
	assert.Equal(t, bridgeerr.KindObjectNotFound, bridgeerr.KindOf(err))

	tbl.Register(obj.ID(), obj)
	found, err := tbl.FindByID(obj.ID())
	require.NoError(t, err)
	assert.Same(t, obj, found)

	// re-registering replaces silently
	other := mustObject(t)
	tbl.Register(obj.ID(), other)
	found, err = tbl.FindByID(obj.ID())
	require.NoError(t, err)
	assert.Same(t, other, found)
}

func TestSetRootRegistersSubtree(t *testing.T) {
	tbl := New()
	settings := mustObject(t)
	app := mustObject(t, object.Child("settings", settings))

	require.NoError(t, tbl.SetRoot("app", app))
	assert.Equal(t, 2, tbl.Len())

	found, err := tbl.FindByID(settings.ID())
	require.NoError(t, err)
	assert.Same(t, settings, found)

	root, ok := tbl.Root("app")
	require.True(t, ok)
	assert.Same(t, app, root)

	// sub-objects are not roots
	_, ok = tbl.Root("settings")
	assert.False(t, ok)
}

func TestSetRootRejectsBadNames(t *testing.T) {
	tbl := New()
	obj := mustObject(t)

	for _, name := range []string{"", "app.settings"} {
		err := tbl.SetRoot(name, obj)
		assert.Equal(t, bridgeerr.KindRegistration, bridgeerr.KindOf(err), name)
	}
	assert.Equal(t, bridgeerr.KindRegistration, bridgeerr.KindOf(tbl.SetRoot("app", nil)))
	assert.Equal(t, 0, tbl.Len())
}

func TestSameObjectUnderTwoNames(t *testing.T) {
	tbl := New()
	obj := mustObject(t)

	require.NoError(t, tbl.SetRoot("a", obj))
	require.NoError(t, tbl.SetRoot("b", obj))

	assert.Equal(t, 1, tbl.Len())
	roots := tbl.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, obj.ID(), roots[0].Object.ID())
	assert.Equal(t, obj.ID(), roots[1].Object.ID())
}

func TestReplacingRootDropsUnreachable(t *testing.T) {
	tbl := New()
	oldChild := mustObject(t)
	old := mustObject(t, object.Child("c", oldChild))
	replacement := mustObject(t)
	other := mustObject(t)

	require.NoError(t, tbl.SetRoot("app", old))
	require.NoError(t, tbl.SetRoot("other", other))
	require.NoError(t, tbl.SetRoot("app", replacement))

	_, err := tbl.FindByID(old.ID())
	assert.Error(t, err)
	_, err = tbl.FindByID(oldChild.ID())
	assert.Error(t, err)
	_, err = tbl.FindByID(replacement.ID())
	assert.NoError(t, err)

	// order of first exposure is kept
	roots := tbl.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, "app", roots[0].Name)
	assert.Equal(t, "other", roots[1].Name)
}

func TestConcurrentAccess(t *testing.T) {
	tbl := New()
	objs := make([]*object.Object, 50)
	for i := range objs {
		objs[i] = mustObject(t)
	}

	var wg sync.WaitGroup
	for _, obj := range objs {
		wg.Add(2)
		go func(obj *object.Object) {
			defer wg.Done()
			tbl.Register(obj.ID(), obj)
		}(obj)
		go func(obj *object.Object) {
			defer wg.Done()
			_, _ = tbl.FindByID(obj.ID())
		}(obj)
	}
	wg.Wait()

	assert.Equal(t, len(objs), tbl.Len())
}
