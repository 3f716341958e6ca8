// Package testing drives the engine headlessly for widget tests.
//
// # Quick Start
//
// Create a tester, run a frame, and make assertions:
//
//	func TestToolbar(t *testing.T) {
//	    tester := imtest.NewTesterWithT(t)
//	    build := func(ctx *engine.Context) {
//	        ctx.Parent("toolbar", core.Sized(core.ChildrenSum(), core.SizeSpec{}), func() {
//	            ctx.Declare("Save##tb", core.Sized(core.TextContent(), core.TextContent()).
//	                WithFlags(core.FlagClickable|core.FlagDrawText))
//	        })
//	    }
//	    require.NoError(t, tester.Frame(build))
//
//	    // Simulate a click; the pointer is sampled by the next frame
//	    require.NoError(t, tester.Tap(imtest.ByText("Save")))
//	    assert.True(t, tester.Find(imtest.ByName("Save##tb")).Widget().Active)
//	}
//
// Text is measured on a monospace cell grid (graphics.CellMetrics), so
// positions in tests are exact.
//
// # Snapshot Testing
//
// Capture and compare the widget tree and draw list of the last frame:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/toolbar.snapshot.json")
//
// Update snapshots with:
//
//	IMDRIFT_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Time
//
// Frame timings come from a fake clock:
//
//	tester.Clock().Advance(16 * time.Millisecond)
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import imtest "github.com/go-drift/immediate/pkg/testing"
package testing
