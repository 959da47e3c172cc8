// Package source loads template text by name.
//
// Dir reads from a local directory and S3 reads from an S3 bucket. Both
// return ErrNotFound for missing templates so callers can treat them
// alike:
//
//	src := source.NewDir("templates")
//	text, err := source.ReadString(ctx, src, "list.html")
package source
