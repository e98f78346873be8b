// Package vocab holds the fixed vocabulary of the command language: flag
// names, operator names and classes, positional field lists, option keys
// and default options.
//
// The tables are declared in the embedded vocab.cue file and compiled once
// per process. Callers get a *Tables from Load or Must and treat it as
// read-only. The same file carries the #UserConfig definition used to
// validate /config input.
package vocab
