//go:build !unix

package local

// lockFile is a no-op without flock; the store mutex still serializes
// writers inside this process.
func lockFile(string) (func(), error) {
	return func() {}, nil
}
