// Package gallery serves single image records over HTTP. The records and
// their persistence live in the models and store subpackages.
package gallery
