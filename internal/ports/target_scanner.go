package ports

// TargetScanner enumerates the files a suite runs the coverage tool over.
type TargetScanner interface {
	Scan(dir, pattern string, exclude []string) ([]string, error)
}
