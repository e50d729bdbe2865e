package container_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-registry/framework/container"
	"github.com/km-arc/go-registry/framework/service"
)

// filesystemTree builds / → filesystem → system, with a "folder" service in
// system and a "disk" service in filesystem.
func filesystemTree(t *testing.T) *container.Container {
	t.Helper()

	system := container.New()
	require.NoError(t, system.Register(service.NewFactory("folder", func(*container.BuildContext) (any, error) {
		return &widget{}, nil
	})))

	fs := container.New(container.WithNamespace("filesystem"))
	require.NoError(t, fs.Register(service.NewInstance("disk", "sda")))
	require.NoError(t, fs.Nest(system, "system"))

	root := container.New()
	require.NoError(t, root.Nest(fs, ""))
	return root
}

// ── Nest ──────────────────────────────────────────────────────────────────────

func TestNest_UsesChildNamespace(t *testing.T) {
	root := filesystemTree(t)

	fs, err := root.From("filesystem")
	require.NoError(t, err)
	assert.Equal(t, "filesystem", fs.Namespace())
	assert.Equal(t, "/filesystem", fs.Path())
	assert.Same(t, root, fs.Parent())
	assert.Same(t, root, fs.Root())
	assert.Equal(t, "/", root.Path())
}

func TestNest_CanonicalizesNamespace(t *testing.T) {
	root := container.New()
	require.NoError(t, root.Nest(container.New(), "File System"))

	_, ok := root.With("filesystem")
	assert.True(t, ok)
	_, ok = root.With("FILE SYSTEM")
	assert.True(t, ok)
}

func TestNest_Errors(t *testing.T) {
	root := container.New()

	require.ErrorIs(t, root.Nest(nil, "x"), container.ErrInvalidName)
	require.ErrorIs(t, root.Nest(container.New(), ""), container.ErrInvalidName)
	require.ErrorIs(t, root.Nest(container.New(), "a/b"), container.ErrInvalidName)
	require.ErrorIs(t, root.Nest(container.New(), ".."), container.ErrInvalidName)

	require.NoError(t, root.Nest(container.New(), "x"))
	require.ErrorIs(t, root.Nest(container.New(), "X"), container.ErrDuplicateName)
}

func TestNest_ClonesArePrivate(t *testing.T) {
	proto := container.New()
	f, _ := widgets("w")
	require.NoError(t, proto.Register(f))

	root := container.New()
	require.NoError(t, root.Nest(proto, "a"))
	require.NoError(t, root.Nest(proto, "b"))

	a, err := root.From("a")
	require.NoError(t, err)
	b, err := root.From("b")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotEqual(t, proto.ID(), a.ID())

	require.NoError(t, a.Register(service.NewInstance("only-a", 1)))
	assert.False(t, b.Has("only-a"))
	assert.False(t, proto.Has("only-a"))

	wa, err := a.Get("w")
	require.NoError(t, err)
	wb, err := b.Get("w")
	require.NoError(t, err)
	assert.NotSame(t, wa, wb)
	assert.Equal(t, 0, proto.CachedInstances())
}

func TestNest_SelfNesting(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(service.NewInstance("v", 1)))
	require.NoError(t, c.Nest(c, "copy"))

	cp, err := c.From("copy")
	require.NoError(t, err)
	assert.True(t, cp.Has("v"))
	assert.Empty(t, cp.Children())
}

func TestClone_Detached(t *testing.T) {
	root := filesystemTree(t)
	cl := root.Clone()

	assert.Nil(t, cl.Parent())
	assert.NotEqual(t, root.ID(), cl.ID())
	_, ok := cl.With("filesystem/system")
	assert.True(t, ok)
}

// ── From / With / Ensure ──────────────────────────────────────────────────────

func TestFrom_Paths(t *testing.T) {
	root := filesystemTree(t)
	system, err := root.From("filesystem/system")
	require.NoError(t, err)
	fs := system.Parent()

	cases := []struct {
		from *container.Container
		path string
		want *container.Container
	}{
		{root, "", root},
		{root, "/", root},
		{root, ".", root},
		{root, "filesystem", fs},
		{root, "/filesystem/system/", system},
		{root, `filesystem\system`, system},
		{root, "Filesystem / System", system},
		{system, "..", fs},
		{system, "../..", root},
		{system, "/", root},
		{system, "/filesystem", fs},
		{fs, "./system", system},
		{system, "../system", system},
	}
	for _, tc := range cases {
		got, err := tc.from.From(tc.path)
		require.NoError(t, err, "path %q from %s", tc.path, tc.from.Path())
		assert.Same(t, tc.want, got, "path %q from %s", tc.path, tc.from.Path())
	}
}

func TestFrom_Missing(t *testing.T) {
	root := filesystemTree(t)

	_, err := root.From("filesystem/nope")
	require.ErrorIs(t, err, container.ErrNamespaceNotFound)
	require.True(t, container.IsNamespaceNotFound(err))

	_, err = root.From("..")
	require.ErrorIs(t, err, container.ErrNamespaceNotFound)

	_, ok := root.With("nope")
	assert.False(t, ok)
}

func TestEnsure_GetOrCreate(t *testing.T) {
	root := container.New()

	created, err := root.Ensure("Cache")
	require.NoError(t, err)
	assert.Equal(t, "/cache", created.Path())

	again, err := root.Ensure("cache")
	require.NoError(t, err)
	assert.Same(t, created, again)

	_, err = root.Ensure("a/b")
	require.ErrorIs(t, err, container.ErrInvalidName)
}

func TestChildren_Sorted(t *testing.T) {
	root := container.New()
	for _, ns := range []string{"zeta", "alpha", "mid"} {
		_, err := root.Ensure(ns)
		require.NoError(t, err)
	}

	var got []string
	for _, ch := range root.Children() {
		got = append(got, ch.Namespace())
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, got)
}

// ── Cross-namespace aliases ───────────────────────────────────────────────────

func TestExtendNested_Equivalence(t *testing.T) {
	root := filesystemTree(t)
	require.NoError(t, root.ExtendNested("sysdir", "/filesystem/system", "folder"))

	viaAlias, err := root.Get("sysdir")
	require.NoError(t, err)

	system, err := root.From("/filesystem/system")
	require.NoError(t, err)
	direct, err := system.Get("folder")
	require.NoError(t, err)

	assert.Same(t, direct, viaAlias)
}

func TestExtendNested_RelativeAndChained(t *testing.T) {
	root := filesystemTree(t)
	system, err := root.From("filesystem/system")
	require.NoError(t, err)

	require.NoError(t, system.ExtendNested("disk", "..", "disk"))
	require.NoError(t, root.Extend("drive", "systemdisk"))
	require.NoError(t, root.ExtendNested("systemdisk", "filesystem/system", "disk"))

	v, err := root.Get("drive")
	require.NoError(t, err)
	assert.Equal(t, "sda", v)
}

func TestExtendNested_MissingNamespace(t *testing.T) {
	root := container.New()
	require.NoError(t, root.ExtendNested("x", "nowhere", "svc"))

	_, err := root.Get("x")
	require.ErrorIs(t, err, container.ErrNamespaceNotFound)
}

func TestExtendNested_CycleAcrossNamespaces(t *testing.T) {
	root := container.New()
	require.NoError(t, root.Nest(container.New(), "child"))
	child, err := root.From("child")
	require.NoError(t, err)

	require.NoError(t, root.ExtendNested("x", "child", "y"))
	require.NoError(t, child.ExtendNested("y", "..", "x"))

	_, err = root.Get("x")
	require.ErrorIs(t, err, container.ErrConfiguration)
	require.Contains(t, err.Error(), "alias cycle")

	_, err = root.Fresh("x")
	require.ErrorIs(t, err, container.ErrConfiguration)

	_, err = child.Get("y")
	require.ErrorIs(t, err, container.ErrConfiguration)
}

func TestExtendNested_CycleThroughPlainAlias(t *testing.T) {
	root := container.New()
	require.NoError(t, root.Nest(container.New(), "child"))
	child, err := root.From("child")
	require.NoError(t, err)

	require.NoError(t, root.ExtendNested("x", "child", "y"))
	require.NoError(t, child.ExtendNested("y", "..", "z"))
	require.NoError(t, root.Extend("z", "x"))

	_, err = root.Get("x")
	require.ErrorIs(t, err, container.ErrConfiguration)
}

func TestExtendNested_ReturnToNamespaceUnderOtherName(t *testing.T) {
	root := container.New()
	require.NoError(t, root.Register(service.NewInstance("disk", "sda")))
	require.NoError(t, root.Nest(container.New(), "child"))
	child, err := root.From("child")
	require.NoError(t, err)

	require.NoError(t, root.ExtendNested("x", "child", "y"))
	require.NoError(t, child.ExtendNested("y", "..", "disk"))

	v, err := root.Get("x")
	require.NoError(t, err)
	assert.Equal(t, "sda", v)
}

func TestExtendNested_FreshIsForwarded(t *testing.T) {
	root := filesystemTree(t)
	require.NoError(t, root.ExtendNested("sysdir", "filesystem/system", "folder"))

	a, err := root.Get("sysdir")
	require.NoError(t, err)
	b, err := root.Fresh("sysdir")
	require.NoError(t, err)
	assert.NotSame(t, a, b)

	c, err := root.Get("sysdir")
	require.NoError(t, err)
	assert.Same(t, b, c)
}

// ── Ancestor initializers ─────────────────────────────────────────────────────

func TestInitialize_AncestorOrder(t *testing.T) {
	root := container.New()
	require.NoError(t, root.Nest(container.New(), "child"))
	child, err := root.From("child")
	require.NoError(t, err)

	var got []int
	record := func(p int) container.InitializerFunc {
		return func(any, *container.BuildContext) error {
			got = append(got, p)
			return nil
		}
	}
	for _, p := range []int{5, 20, 10} {
		child.InitializerChain().AddCallback(record(p), p)
	}
	root.InitializerChain().AddCallback(record(1), 1)

	require.NoError(t, child.Initialize(&widget{}))
	assert.Equal(t, []int{20, 10, 5, 1}, got)
}

func TestInitialize_AncestorAwarenessUsesOwner(t *testing.T) {
	root := filesystemTree(t)
	system, err := root.From("filesystem/system")
	require.NoError(t, err)

	v, err := system.Get("folder")
	require.NoError(t, err)
	assert.Same(t, system, v.(*widget).c)
}

func TestInitialize_RootCallbackSeesNestedBuilds(t *testing.T) {
	root := filesystemTree(t)

	var built []string
	root.InitializerChain().AddCallback(func(target any, bc *container.BuildContext) error {
		if _, ok := target.(*widget); ok {
			built = append(built, bc.Container.Path()+"/"+bc.Name)
		}
		return nil
	}, container.DefaultPriority)

	require.NoError(t, root.ExtendNested("f", "filesystem/system", "folder"))
	_, err := root.Get("f")
	require.NoError(t, err)
	assert.Equal(t, []string{"/filesystem/system/folder"}, built)
}

// ── Concurrency ───────────────────────────────────────────────────────────────

func TestGet_ConcurrentReaders(t *testing.T) {
	root := filesystemTree(t)
	system, err := root.From("filesystem/system")
	require.NoError(t, err)
	_, err = system.Get("folder")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := root.From("/filesystem/system"); err != nil {
				errs <- err
				return
			}
			if _, err := system.Get("folder"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestGet_ConcurrentColdBuildOfSameName(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	c := container.New()
	require.NoError(t, c.Register(service.NewFactory("slow", func(*container.BuildContext) (any, error) {
		close(started)
		<-release
		return &widget{}, nil
	})))

	done := make(chan error, 1)
	go func() {
		_, err := c.Get("slow")
		done <- err
	}()
	<-started

	_, err := c.Get("slow")
	require.ErrorIs(t, err, container.ErrCircularDependency)

	close(release)
	require.NoError(t, <-done)

	// once cached, concurrent readers are fine
	_, err = c.Get("slow")
	require.NoError(t, err)
}
