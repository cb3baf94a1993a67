package organizer

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"

	"filesort/internal/services"
)

// LockFileName is created in the destination root while a pass runs.
const LockFileName = ".filesort.lock"

// acquireDestinationLock takes an exclusive advisory lock on the destination.
// Lock files only make sense on the OS filesystem; other afero backends run
// unlocked.
func acquireDestinationLock(fs afero.Fs, destination string) (func(), error) {
	if _, ok := fs.(*afero.OsFs); !ok {
		return func() {}, nil
	}
	lock := flock.New(filepath.Join(destination, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, StageListing, "acquire lock", "could not lock destination", err)
	}
	if !ok {
		return nil, services.Wrap(
			services.ErrConflict,
			StageListing,
			"acquire lock",
			fmt.Sprintf("another organize pass is writing %s", destination),
			nil,
		)
	}
	return func() {
		_ = lock.Unlock()
	}, nil
}
