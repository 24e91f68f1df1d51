//go:build !unix

package sink

import "os"

// Advisory locking is only implemented on unix; elsewhere the controller-only
// session rule is the sole guard against two writers.
func lockFile(*os.File) error { return nil }

func unlockFile(*os.File) error { return nil }
