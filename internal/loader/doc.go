// Package loader runs a source file through the ordered transform chain of
// the rule matching its content type and classifies the result as either a
// contribution to the JavaScript bundle or an extraction emission.
//
// Transform implementations live in loader/transforms and are injected
// through a Registry, which is how tests substitute fake compilers.
package loader
