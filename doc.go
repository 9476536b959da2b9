// Package dsemu manages a Google Cloud Datastore emulator for tests.
//
// dsemu starts the emulator through the gcloud CLI, waits until it answers
// healthchecks, and exports the environment variables Datastore client
// libraries use for discovery. When a suitable emulator is already running
// (advertised via DATASTORE_HOST and DATASTORE_PROJECT_ID), dsemu adopts it
// instead of spawning a second one, so a long-running emulator shared by a
// developer's shell keeps working across test runs.
//
// # Basic Usage
//
//	import "github.com/fwojciec/dsemu"
//
//	func TestMain(m *testing.M) {
//	    emu, err := dsemu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    ctx := context.Background()
//	    if err := emu.Start(ctx); err != nil {
//	        log.Fatal(err)
//	    }
//	    code := m.Run()
//	    if err := emu.Stop(); err != nil {
//	        log.Print(err)
//	    }
//	    os.Exit(code)
//	}
//
// Between test cases, Reset restores the emulator's empty initial state:
//
//	func TestPut(t *testing.T) {
//	    if err := emu.Reset(context.Background()); err != nil {
//	        t.Fatal(err)
//	    }
//	    // exercise Datastore clients...
//	}
//
// # Instance Reuse
//
// Spawning the emulator costs several seconds of JVM startup. To pay that
// cost once per development session instead of once per test run, start an
// emulator out of band and advertise it:
//
//	gcloud beta emulators datastore start --no-store-on-disk &
//	export DATASTORE_HOST=http://localhost:8081
//	export DATASTORE_PROJECT_ID=test
//
// Start then adopts the running instance, and Stop leaves it running for
// the next test run. Ownership is tracked explicitly: dsemu only shuts down
// processes it spawned itself.
//
// # Parallel Suites
//
// Pass a port of 0 to let the kernel choose a free port, so independent
// test binaries on one machine never collide:
//
//	emu, err := dsemu.New(dsemu.WithHost("http://localhost:0"))
//
// A file lock in the data directory additionally serializes spawning across
// processes sharing a data dir.
package dsemu
