// Package transforms holds the built-in loader transforms: the external Elm
// compiler, CSS parsing, PostCSS and generic command pipes, the esbuild
// JavaScript transform, the style injection fallback and the identity loader.
package transforms
