package statusicon

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAnimationValidatesArguments(t *testing.T) {
	item, _ := newTestItem(t, ":1.7", Options{})

	err := item.StartAnimation(nil, 50*time.Millisecond, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = item.StartAnimation([]string{"a.svg"}, 0, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestStartAnimationDisplaysFirstFrameSynchronously(t *testing.T) {
	renderer := &countingRenderer{}
	item, fake := newTestItem(t, ":1.7", Options{ID: "spin", Cache: newTestCache(renderer)})
	requireRegistered(t, item, true)

	// An interval this long means the timer never ticks inside the
	// test: everything observed below happened synchronously in start.
	require.NoError(t, item.StartAnimation([]string{"a.svg", "b.svg"}, time.Hour, "spinning"))
	defer item.StopAnimation()

	assert.Equal(t, []string{"a.svg", "b.svg"}, renderer.snapshot(),
		"all frames pre-warmed, in order, exactly once")

	obj := fake.export(StatusNotifierItemPath, StatusNotifierItemInterface).(*sniObject)
	assert.Regexp(t, `^spin-\d+-0$`, obj.properties()["Id"].Value().(string),
		"frame 0 displayed before the first tick")

	tip := obj.properties()["ToolTip"].Value().(tooltip)
	assert.Equal(t, "spinning", tip.Title)
}

func TestAnimationCyclesFramesInOrder(t *testing.T) {
	renderer := &countingRenderer{}
	cache := newTestCache(renderer)
	item, _ := newTestItem(t, ":1.7", Options{Cache: cache})
	requireRegistered(t, item, true)

	frames := []string{"a.svg", "b.svg", "c.svg"}
	require.NoError(t, item.StartAnimation(frames, 5*time.Millisecond, ""))

	// Clearing the cache forces every tick to re-render its frame, so
	// the renderer records the order ticks request frames in.
	cache.Clear()

	require.Eventually(t, func() bool {
		return renderer.count() >= len(frames)+7
	}, time.Second, 2*time.Millisecond)
	item.StopAnimation()

	ticked := renderer.snapshot()[len(frames):]
	start := slices.Index(frames, ticked[0])
	require.GreaterOrEqual(t, start, 0)

	for i, path := range ticked[:6] {
		assert.Equal(t, frames[(start+i)%len(frames)], path,
			"ticks must advance frames cyclically in order")
	}
}

func TestStopAnimationStopsPushing(t *testing.T) {
	// No republish timers: the only NewIcon signals after registration
	// come from animation pushes.
	item, fake := newTestItem(t, ":1.7", Options{RepublishDelays: []time.Duration{}})
	requireRegistered(t, item, true)

	require.NoError(t, item.StartAnimation([]string{"a.svg", "b.svg"}, 5*time.Millisecond, ""))

	require.Eventually(t, func() bool {
		return fake.emitCount(StatusNotifierItemInterface+".NewIcon") >= 4
	}, time.Second, 2*time.Millisecond)

	item.StopAnimation()
	after := fake.emitCount(StatusNotifierItemInterface + ".NewIcon")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, fake.emitCount(StatusNotifierItemInterface+".NewIcon"),
		"no frame pushes after stop")

	// Stopping again while idle stays a no-op.
	item.StopAnimation()
}

func TestStartAnimationReplacesRunningAnimation(t *testing.T) {
	item, _ := newTestItem(t, ":1.7", Options{})
	requireRegistered(t, item, true)

	require.NoError(t, item.StartAnimation([]string{"a.svg", "b.svg"}, 5*time.Millisecond, ""))
	require.NoError(t, item.StartAnimation([]string{"x.svg"}, 5*time.Millisecond, ""))
	defer item.StopAnimation()

	item.anim.mu.Lock()
	defer item.anim.mu.Unlock()
	assert.Equal(t, []string{"x.svg"}, item.anim.frames)
}

func TestAnimationSkipsUnrenderableFrames(t *testing.T) {
	renderer := &countingRenderer{failOn: map[string]bool{"bad.svg": true}}
	item, fake := newTestItem(t, ":1.7", Options{ID: "spin", Cache: newTestCache(renderer)})
	requireRegistered(t, item, true)

	// Frame 0 cannot render; the animation still starts and the good
	// frame is displayed on the next tick.
	require.NoError(t, item.StartAnimation([]string{"bad.svg", "good.svg"}, 5*time.Millisecond, ""))
	defer item.StopAnimation()

	obj := fake.export(StatusNotifierItemPath, StatusNotifierItemInterface).(*sniObject)
	require.Eventually(t, func() bool {
		id, _ := obj.properties()["Id"].Value().(string)
		return strings.HasSuffix(id, "-1")
	}, time.Second, 2*time.Millisecond)
}

func TestStopAnimationAfterDispose(t *testing.T) {
	item, _ := newTestItem(t, ":1.7", Options{})

	require.NoError(t, item.StartAnimation([]string{"a.svg"}, 5*time.Millisecond, ""))
	item.Dispose()

	// Must not panic or error.
	item.StopAnimation()
}
