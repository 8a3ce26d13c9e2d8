// Package prompts reads prompt files.
//
// A prompt file is UTF-8 text with one prompt per line. Blank lines and
// lines starting with "#" are ignored:
//
//	# portraits
//	a girl in a forest, fantasy style, 8k
//
//	a girl on a beach, sunset, 8k
//
// Read returns the remaining lines in file order without deduplication.
// When the file is missing Read returns a *model.MissingInputError and the
// caller may call WriteTemplate to create an example file.
package prompts
