package loader

import "fmt"

// ModuleResult is the outcome of running a chain: exactly one of
// BundleContribution or ExtractionEmission.
type ModuleResult interface {
	isModuleResult()
}

// BundleContribution is module code included in the JavaScript bundle.
type BundleContribution struct {
	Code string
}

// ExtractionEmission is text routed to the extraction sink under Kind. The
// module itself is registered in the bundle as empty.
type ExtractionEmission struct {
	Kind string
	Text string
}

func (BundleContribution) isModuleResult() {}
func (ExtractionEmission) isModuleResult() {}

// CompileError reports a failed transform for one file.
type CompileError struct {
	FilePath string
	Loader   string
	Message  string
	Err      error
}

func (e *CompileError) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("%s loader failed for %s: %v", e.Loader, e.FilePath, e.Err)
	}
	return fmt.Sprintf("%s loader failed for %s: %s", e.Loader, e.FilePath, e.Message)
}

func (e *CompileError) Unwrap() error { return e.Err }
